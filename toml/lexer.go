package toml

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/sdverrors"
)

// ParseError carries the byte offset of a lexical or syntax failure: a
// malformed token, or a missing '=', ']' or '}'. Duplicate keys, redefined
// tables and other table-shape conflicts are returned as plain errors that
// carry no offset and do not wrap sdverrors.ErrTOMLParse.
type ParseError struct {
	Offset int
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: %s (offset %d, line %d)", e.Msg, e.Offset, e.Line)
}

func (e *ParseError) Unwrap() error { return sdverrors.ErrTOMLParse }

func perr(offset, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: offset, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Lexer tokenizes a UTF-8 TOML buffer into a restartable, finite token
// stream (spec.md §4.6). Lex() produces every token, including whitespace
// and comments; the parser is responsible for skipping trivia during
// structural passes and for harvesting it when it needs to extract a
// node's surrounding code snippets (spec.md §4.6: "a navigation mode that
// can be switched between skip ... and do not skip anything").
type Lexer struct {
	src  string
	pos  int
	line int
}

// NewLexer constructs a Lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Lex tokenizes the entire buffer up front and returns every token,
// terminated by a KindEOF token.
func (l *Lexer) Lex() ([]Token, error) {
	var toks []Token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == KindEOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) byteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) next() (Token, error) {
	start := l.pos
	startLine := l.line
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Start: start, End: start, Line: startLine}, nil
	}

	c := l.peekByte()
	switch {
	case c == ' ' || c == '\t':
		for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
			l.pos++
		}
		return l.tok(KindWhitespace, start, startLine), nil

	case c == '\r' || c == '\n':
		if c == '\r' && l.byteAt(1) == '\n' {
			l.pos += 2
		} else {
			l.pos++
		}
		l.line++
		return l.tok(KindNewline, start, startLine), nil

	case c == '#':
		for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
			l.pos++
		}
		return l.tok(KindComment, start, startLine), nil

	case c == '=':
		l.pos++
		return l.tok(KindAssign, start, startLine), nil

	case c == ',':
		l.pos++
		return l.tok(KindComma, start, startLine), nil

	case c == '.':
		l.pos++
		return l.tok(KindDot, start, startLine), nil

	case c == '[':
		if l.byteAt(1) == '[' {
			l.pos += 2
			return l.tok(KindTableOpen, start, startLine), nil // "[[" is KindTableOpen, a single "[" is KindArrayOpen
		}
		l.pos++
		return l.tok(KindArrayOpen, start, startLine), nil

	case c == ']':
		if l.byteAt(1) == ']' {
			l.pos += 2
			return l.tok(KindTableClose, start, startLine), nil
		}
		l.pos++
		return l.tok(KindArrayClose, start, startLine), nil

	case c == '{':
		l.pos++
		return l.tok(KindInlineTableOpen, start, startLine), nil

	case c == '}':
		l.pos++
		return l.tok(KindInlineTableClose, start, startLine), nil

	case c == '"':
		return l.lexBasicString(start, startLine)

	case c == '\'':
		return l.lexLiteralString(start, startLine)

	default:
		return l.lexBareOrScalar(start, startLine)
	}
}

func (l *Lexer) tok(kind Kind, start, line int) Token {
	return Token{Kind: kind, Raw: l.src[start:l.pos], Start: start, End: l.pos, Line: line}
}

func (l *Lexer) lexBasicString(start, startLine int) (Token, error) {
	// Multi-line basic string: """ ... """
	if strings.HasPrefix(l.src[l.pos:], `"""`) {
		l.pos += 3
		// Leading newline immediately after the opening delimiter is trimmed
		// per TOML, but we keep raw bytes verbatim for round-tripping and let
		// the value-decoder deal with it.
		for {
			if l.pos >= len(l.src) {
				return Token{}, perr(start, startLine, "unterminated multi-line basic string")
			}
			if l.src[l.pos] == '\\' {
				l.pos += 2
				continue
			}
			if strings.HasPrefix(l.src[l.pos:], `"""`) {
				l.pos += 3
				return l.tok(KindStringMultilineBasic, start, startLine), nil
			}
			if l.src[l.pos] == '\n' {
				l.line++
			}
			l.pos++
		}
	}
	l.pos++ // opening quote
	for {
		if l.pos >= len(l.src) {
			return Token{}, perr(start, startLine, "unterminated string")
		}
		c := l.src[l.pos]
		if c == '\n' {
			return Token{}, perr(l.pos, l.line, "newline in single-line string")
		}
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '"' {
			l.pos++
			return l.tok(KindStringBasic, start, startLine), nil
		}
		l.pos++
	}
}

func (l *Lexer) lexLiteralString(start, startLine int) (Token, error) {
	if strings.HasPrefix(l.src[l.pos:], `'''`) {
		l.pos += 3
		for {
			if l.pos >= len(l.src) {
				return Token{}, perr(start, startLine, "unterminated multi-line literal string")
			}
			if strings.HasPrefix(l.src[l.pos:], `'''`) {
				l.pos += 3
				return l.tok(KindStringMultilineLiteral, start, startLine), nil
			}
			if l.src[l.pos] == '\n' {
				l.line++
			}
			l.pos++
		}
	}
	l.pos++
	for {
		if l.pos >= len(l.src) {
			return Token{}, perr(start, startLine, "unterminated literal string")
		}
		c := l.src[l.pos]
		if c == '\n' {
			return Token{}, perr(l.pos, l.line, "newline in single-line literal string")
		}
		if c == '\'' {
			l.pos++
			return l.tok(KindStringLiteral, start, startLine), nil
		}
		l.pos++
	}
}

func isBareKeyByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// lexBareOrScalar handles bare keys, booleans, numbers (with 0x/0o/0b bases
// and underscore separators), inf/nan floats, and date/times, all of which
// share the same "run of non-trivia, non-syntax bytes" lexical shape in
// TOML and are disambiguated here by content.
func (l *Lexer) lexBareOrScalar(start, startLine int) (Token, error) {
	if l.peekByte() == '+' || l.peekByte() == '-' {
		l.pos++
	}
	sawDot, sawExp, sawColon, sawDash, sawDigit, sawAlpha := false, false, false, false, false, false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isBareKeyByte(c) {
			if c >= '0' && c <= '9' {
				sawDigit = true
			} else if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				sawAlpha = true
			}
			if c == '-' {
				sawDash = true
			}
			l.pos++
			continue
		}
		if c == '.' && sawDigit && !sawDot {
			// Only consume as part of a float if followed by a digit;
			// otherwise it is a dotted-key separator, not part of this token.
			if l.byteAt(1) >= '0' && l.byteAt(1) <= '9' {
				sawDot = true
				l.pos++
				continue
			}
			break
		}
		if c == ':' {
			sawColon = true
			l.pos++
			continue
		}
		if (c == '+' || c == '-') && l.pos > start && (l.src[l.pos-1] == 'e' || l.src[l.pos-1] == 'E') {
			sawExp = true
			l.pos++
			continue
		}
		break
	}
	if l.pos == start || (l.pos == start+1 && (l.src[start] == '+' || l.src[start] == '-')) {
		return Token{}, perr(start, startLine, "unexpected character %q", l.src[start])
	}
	raw := l.src[start:l.pos]
	lower := strings.ToLower(strings.TrimLeft(raw, "+-"))

	switch {
	case raw == "true" || raw == "false":
		return l.tok(KindBooleanToken, start, startLine), nil
	case lower == "inf" || lower == "nan":
		return l.tok(KindFloatToken, start, startLine), nil
	case sawColon || (sawDash && sawDigit && len(raw) >= 8 && !sawAlpha):
		return l.tok(KindDateTime, start, startLine), nil
	case sawDot || sawExp:
		return l.tok(KindFloatToken, start, startLine), nil
	case sawDigit && !sawAlpha:
		return l.tok(KindIntegerToken, start, startLine), nil
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0o") || strings.HasPrefix(raw, "0b"):
		return l.tok(KindIntegerToken, start, startLine), nil
	default:
		if !utf8.ValidString(raw) {
			return Token{}, perr(start, startLine, "invalid UTF-8 in bare key")
		}
		return l.tok(KindKeyBare, start, startLine), nil
	}
}
