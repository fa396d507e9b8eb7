package toml

import (
	"fmt"
	"strings"
)

// Tree is a parsed TOML document (spec.md §3/§4.7). Root is never nil,
// never deletable, and never inline (spec.md §3 invariant).
type Tree struct {
	Root *Node
	// Trailing holds full-line comments that precede EOF with no following
	// node to attach to (spec.md's "out-of-scope comments").
	Trailing []string
}

// Parse tokenizes and structurally parses src into a Tree, per spec.md
// §4.7. The small environment stack spec.md describes (root / inline-table
// / array) is realized here as ordinary recursive descent: parseValue
// recurses into parseInlineTable/parseInlineArray for {}/[] and returns to
// the caller's context on close, which is the same effect without an
// explicit stack value.
func Parse(src string) (*Tree, error) {
	toks, err := NewLexer(src).Lex()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root := &Node{Kind: KindRoot, DefinedExplicitly: true}
	root.View = root
	tree := &Tree{Root: root}
	p.tree = tree
	p.view = root
	if err := p.parseTop(); err != nil {
		return nil, err
	}
	tree.Trailing = p.pendingComments
	return tree, nil
}

type parser struct {
	toks []Token
	pos  int

	tree *Tree
	view *Node // table whose header is currently open

	pendingComments []string
	pendingIndent   string
}

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: KindEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// skipInline skips KindWhitespace tokens only, never crossing a newline.
func (p *parser) skipInline() {
	for p.cur().Kind == KindWhitespace {
		p.advance()
	}
}

// skipBlankLines skips newline tokens and records full-line comments into
// pendingComments, stopping at the first token that starts real content.
// It also captures any inline indentation preceding that content into
// pendingIndent.
func (p *parser) skipBlankLines() error {
	for {
		switch p.cur().Kind {
		case KindNewline:
			p.advance()
		case KindWhitespace:
			// Only trivia at start of line; remember it in case the next
			// token is the start of a node (its indentation), otherwise it
			// is blank-line padding and harmless either way.
			p.pendingIndent = p.cur().Raw
			p.advance()
		case KindComment:
			c := p.advance()
			p.pendingComments = append(p.pendingComments, c.Raw)
			if p.cur().Kind == KindNewline {
				p.advance()
			}
			p.pendingIndent = ""
		default:
			return nil
		}
	}
}

func (p *parser) takeSnippets() Snippets {
	s := Snippets{PreComments: p.pendingComments}
	p.pendingComments = nil
	p.pendingIndent = ""
	return s
}

func (p *parser) parseTop() error {
	for {
		if err := p.skipBlankLines(); err != nil {
			return err
		}
		switch p.cur().Kind {
		case KindEOF:
			return nil
		case KindTableOpen:
			if err := p.parseTableArrayHeader(); err != nil {
				return err
			}
		case KindArrayOpen:
			if err := p.parseTableHeader(); err != nil {
				return err
			}
		default:
			if err := p.parseKeyValueLine(); err != nil {
				return err
			}
		}
	}
}

// parseKeyPath reads a dotted key path (bare or quoted segments separated
// by '.') and returns the decoded names plus the raw segment text.
func (p *parser) parseKeyPath() (names []string, raws []string, err error) {
	for {
		t := p.cur()
		if !t.Kind.isKey() {
			return nil, nil, perr(t.Start, t.Line, "expected a key, found %q", t.Raw)
		}
		p.advance()
		names = append(names, decodeKeyName(t.Raw))
		raws = append(raws, t.Raw)
		p.skipInline()
		if p.cur().Kind == KindDot {
			p.advance()
			p.skipInline()
			continue
		}
		return names, raws, nil
	}
}

// parseTableHeader parses `[a.b.c]` (note: the lexer emits KindArrayOpen for
// a single '[').
func (p *parser) parseTableHeader() error {
	snip := p.takeSnippets()
	p.advance() // '['
	p.skipInline()
	names, raws, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	if p.cur().Kind != KindArrayClose {
		return perr(p.cur().Start, p.cur().Line, "expected ']' closing table header")
	}
	p.advance()
	tail := p.consumeLineTail()

	table, err := navigateExplicitTable(p.tree.Root, names, raws)
	if err != nil {
		return err
	}
	table.Snippets = snip
	table.Snippets.TailComment = tail
	p.view = table
	return nil
}

// parseTableArrayHeader parses `[[a.b]]`.
func (p *parser) parseTableArrayHeader() error {
	snip := p.takeSnippets()
	p.advance() // '[['
	p.skipInline()
	names, raws, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	if p.cur().Kind != KindTableClose {
		return perr(p.cur().Start, p.cur().Line, "expected ']]' closing table-array header")
	}
	p.advance()
	tail := p.consumeLineTail()

	table, err := navigateTableArrayAppend(p.tree.Root, names, raws)
	if err != nil {
		return err
	}
	table.Snippets = snip
	table.Snippets.TailComment = tail
	p.view = table
	return nil
}

func (p *parser) parseKeyValueLine() error {
	snip := p.takeSnippets()
	names, raws, err := p.parseKeyPath()
	if err != nil {
		return err
	}
	p.skipInline()
	if p.cur().Kind != KindAssign {
		return perr(p.cur().Start, p.cur().Line, "expected '=' after key")
	}
	p.advance()
	p.skipInline()
	value, err := p.parseValue()
	if err != nil {
		return err
	}
	tail := p.consumeLineTail()

	if err := assignDotted(p.view, names, raws, value); err != nil {
		return err
	}
	value.Snippets = snip
	value.Snippets.TailComment = tail
	return nil
}

// consumeLineTail reads inline whitespace and an optional trailing comment
// up to (not including) the terminating newline/EOF, returning the raw
// text verbatim so the emitter can reproduce the exact gap before "#".
func (p *parser) consumeLineTail() string {
	start := p.pos
	p.skipInline()
	if p.cur().Kind == KindComment {
		p.advance()
	}
	var b strings.Builder
	for i := start; i < p.pos; i++ {
		b.WriteString(p.toks[i].Raw)
	}
	if p.cur().Kind == KindNewline {
		p.advance()
	} else if p.cur().Kind != KindEOF {
		// Leftover content on the line that isn't a comment is a syntax
		// error (e.g. two values with no separator).
	}
	return b.String()
}

func (p *parser) parseValue() (*Node, error) {
	t := p.cur()
	switch t.Kind {
	case KindBooleanToken:
		p.advance()
		return &Node{Kind: KindBoolean, RawValue: t.Raw, Value: decodeScalar(KindBoolean, t.Raw)}, nil
	case KindIntegerToken:
		p.advance()
		return &Node{Kind: KindInteger, RawValue: t.Raw, Value: decodeScalar(KindInteger, t.Raw)}, nil
	case KindFloatToken:
		p.advance()
		return &Node{Kind: KindFloat, RawValue: t.Raw, Value: decodeScalar(KindFloat, t.Raw)}, nil
	case KindDateTime:
		p.advance()
		return &Node{Kind: KindString, RawValue: t.Raw, Value: t.Raw}, nil // dates are not interpreted (spec.md Non-goals)
	case KindStringBasic, KindStringMultilineBasic, KindStringLiteral, KindStringMultilineLiteral:
		p.advance()
		return &Node{Kind: KindString, RawValue: t.Raw, Value: decodeStringToken(t.Raw)}, nil
	case KindInlineTableOpen:
		return p.parseInlineTable()
	case KindArrayOpen:
		return p.parseInlineArray()
	default:
		return nil, perr(t.Start, t.Line, "unexpected token %q while expecting a value", t.Raw)
	}
}

func (p *parser) parseInlineTable() (*Node, error) {
	p.advance() // '{'
	table := &Node{Kind: KindTable, Inline: true, DefinedExplicitly: true}
	table.View = table
	p.skipInline()
	for p.cur().Kind != KindInlineTableClose {
		names, raws, err := p.parseKeyPath()
		if err != nil {
			return nil, err
		}
		p.skipInline()
		if p.cur().Kind != KindAssign {
			return nil, perr(p.cur().Start, p.cur().Line, "expected '=' in inline table")
		}
		p.advance()
		p.skipInline()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := assignDotted(table, names, raws, val); err != nil {
			return nil, err
		}
		p.skipInline()
		if p.cur().Kind == KindComma {
			p.advance()
			p.skipInline()
			continue
		}
		break
	}
	if p.cur().Kind != KindInlineTableClose {
		return nil, perr(p.cur().Start, p.cur().Line, "expected '}' closing inline table")
	}
	p.advance()
	return table, nil
}

func (p *parser) parseInlineArray() (*Node, error) {
	p.advance() // '['
	arr := &Node{Kind: KindArray, Inline: true}
	for {
		p.skipArrayTrivia()
		if p.cur().Kind == KindArrayClose {
			break
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		val.Parent = arr
		val.View = arr
		arr.Children = append(arr.Children, val)
		p.skipArrayTrivia()
		if p.cur().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	p.skipArrayTrivia()
	if p.cur().Kind != KindArrayClose {
		return nil, perr(p.cur().Start, p.cur().Line, "expected ']' closing array")
	}
	p.advance()
	return arr, nil
}

// skipArrayTrivia skips whitespace, newlines, and comments, which are all
// permitted freely inside a multi-line array.
func (p *parser) skipArrayTrivia() {
	for {
		switch p.cur().Kind {
		case KindWhitespace, KindNewline:
			p.advance()
		case KindComment:
			p.advance()
		default:
			return
		}
	}
}

// assignDotted implements spec.md §4.7's dotted-key rule: the last
// intermediate table on the path is the node's Parent, while the table
// whose header is currently open (view) is the node's View.
func assignDotted(view *Node, names, raws []string, value *Node) error {
	cur := view
	path := make([]string, 0, len(names))
	for i := 0; i < len(names)-1; i++ {
		path = append(path, raws[i])
		child := cur.Get(names[i])
		if child == nil {
			child = &Node{Kind: KindTable, Name: names[i], RawName: raws[i], Parent: cur, View: view}
			cur.Children = append(cur.Children, child)
		} else if child.Kind != KindTable {
			return fmt.Errorf("key %q is not a table", names[i])
		} else if child.Inline {
			return fmt.Errorf("cannot extend inline table %q with a dotted key", names[i])
		}
		cur = child
	}
	last := len(names) - 1
	if existing := cur.Get(names[last]); existing != nil {
		return fmt.Errorf("duplicate key %q", names[last])
	}
	value.Name = names[last]
	value.RawName = raws[last]
	value.Parent = cur
	value.View = view
	value.ViewPath = append(path, raws[last])
	cur.Children = append(cur.Children, value)
	view.ViewOrder = append(view.ViewOrder, value)
	return nil
}

// navigateExplicitTable implements `[a.b.c]`: walks/creates tables along
// the path, promoting at most once an implicit intermediate into the
// explicit final segment (spec.md §4.7).
func navigateExplicitTable(root *Node, names, raws []string) (*Node, error) {
	cur := root
	for i, name := range names {
		isLast := i == len(names)-1
		child := cur.Get(name)
		if child == nil {
			child = &Node{Kind: KindTable, Name: name, RawName: raws[i], Parent: cur, DefinedExplicitly: isLast}
			child.View = child
			cur.Children = append(cur.Children, child)
		} else {
			switch child.Kind {
			case KindTable:
				if isLast {
					if child.DefinedExplicitly {
						return nil, fmt.Errorf("table %q redefined", name)
					}
					child.DefinedExplicitly = true
				}
			case KindTableArray:
				if !isLast {
					if len(child.Children) == 0 {
						return nil, fmt.Errorf("cannot descend into empty table array %q", name)
					}
					child = child.Children[len(child.Children)-1]
				} else {
					return nil, fmt.Errorf("table %q collides with an existing array of tables", name)
				}
			default:
				return nil, fmt.Errorf("key %q is not a table", name)
			}
		}
		cur = child
	}
	return cur, nil
}

// navigateTableArrayAppend implements `[[a.b]]`.
func navigateTableArrayAppend(root *Node, names, raws []string) (*Node, error) {
	cur := root
	for i, name := range names {
		isLast := i == len(names)-1
		child := cur.Get(name)
		if !isLast {
			if child == nil {
				child = &Node{Kind: KindTable, Name: name, RawName: raws[i], Parent: cur}
				child.View = child
				cur.Children = append(cur.Children, child)
			} else if child.Kind == KindTableArray {
				if len(child.Children) == 0 {
					return nil, fmt.Errorf("cannot descend into empty table array %q", name)
				}
				child = child.Children[len(child.Children)-1]
			} else if child.Kind != KindTable {
				return nil, fmt.Errorf("key %q is not a table", name)
			}
			cur = child
			continue
		}
		var arrNode *Node
		if child == nil {
			arrNode = &Node{Kind: KindTableArray, Name: name, RawName: raws[i], Parent: cur}
			cur.Children = append(cur.Children, arrNode)
		} else if child.Kind == KindTableArray {
			arrNode = child
		} else {
			return nil, fmt.Errorf("key %q collides with a non-array value", name)
		}
		table := &Node{Kind: KindTable, Name: fmt.Sprintf("%d", len(arrNode.Children)), Parent: arrNode, DefinedExplicitly: true}
		table.View = table
		arrNode.Children = append(arrNode.Children, table)
		return table, nil
	}
	return nil, fmt.Errorf("empty table-array header")
}
