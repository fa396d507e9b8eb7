package toml

import (
	"fmt"
	"strconv"
	"strings"
)

// GenContext mirrors spec.md §4.8's CGenContext: it carries the key-path
// prefix to rewrite every emitted header/key with, and records the
// top-most node of the subtree being emitted so ancestors outside it are
// never printed.
type GenContext struct {
	Prefix     []string
	NoComments bool
	top        *Node
}

// Generate walks the tree and regenerates TOML text, per spec.md §4.8.
// prefixKey segments, if any, are prepended to every emitted header (of
// nested tables and table-arrays) and, since the root itself has no header
// of its own to rewrite, printed once as a synthetic "[prefix]" header
// above the root's own keys.
func (t *Tree) Generate(prefixKey ...string) string {
	ctx := &GenContext{Prefix: prefixKey, top: t.Root}
	var b strings.Builder
	if len(prefixKey) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(prefixKey, "."))
		b.WriteString("]\n")
	}
	emitTableBody(&b, ctx, t.Root)
	for _, c := range t.Trailing {
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

// GenerateNode emits just the subtree rooted at n (spec.md §8 round-trip
// law 6: "Emitting with a prefix key P then parsing, then emitting with the
// empty prefix and navigating to P, reproduces the original subtree").
func GenerateNode(n *Node, prefixKey ...string) string {
	ctx := &GenContext{Prefix: prefixKey, top: n}
	var b strings.Builder
	if n.IsCollection() && n.Kind != KindString {
		if len(prefixKey) > 0 {
			b.WriteString("[")
			b.WriteString(strings.Join(prefixKey, "."))
			b.WriteString("]\n")
		}
		emitTableBody(&b, ctx, n)
	} else {
		writeValueLine(&b, ctx, n)
	}
	return b.String()
}

func withPrefix(ctx *GenContext, path []string) []string {
	if len(ctx.Prefix) == 0 {
		return path
	}
	out := make([]string, 0, len(ctx.Prefix)+len(path))
	out = append(out, ctx.Prefix...)
	out = append(out, path...)
	return out
}

// headerPath walks from n up to (not including) top, collecting each
// segment's raw name, used both for explicit-table headers and table-array
// headers. Table-array elements contribute no segment of their own.
func headerPath(n, top *Node) []string {
	var segs []string
	for cur := n; cur != nil && cur != top && cur.Parent != nil; cur = cur.Parent {
		if cur.Parent.Kind == KindTableArray {
			continue
		}
		segs = append([]string{cur.RawName}, segs...)
	}
	return segs
}

// emitTableBody writes table's own key = value lines (in ViewOrder, which
// carries dotted-key entries assigned under this table via an open header)
// followed by its nested explicit tables and table-arrays. Lines within a
// table are always written relative to whatever header (real or synthetic)
// is currently open - the prefix only ever rewrites header text.
func emitTableBody(b *strings.Builder, ctx *GenContext, table *Node) {
	for _, v := range table.ViewOrder {
		if v.deleted {
			continue
		}
		writeValueLine(b, ctx, v)
	}
	for _, child := range table.Children {
		if child.deleted {
			continue
		}
		switch child.Kind {
		case KindTable:
			if child.DefinedExplicitly && !child.Inline {
				emitExplicitTable(b, ctx, child)
			} else if !child.Inline {
				// An implicit table has no header of its own, but the
				// explicit tables and table-arrays nested in it do.
				emitTableBody(b, ctx, child)
			}
		case KindTableArray:
			for _, inst := range child.Children {
				if inst.deleted {
					continue
				}
				emitTableArrayInstance(b, ctx, child, inst)
			}
		}
	}
}

func emitExplicitTable(b *strings.Builder, ctx *GenContext, table *Node) {
	path := withPrefix(ctx, headerPath(table, ctx.top))
	hasNonTableChild := len(table.ViewOrder) > 0
	if hasNonTableChild || table == ctx.top {
		writeComments(b, ctx, table.Snippets)
		b.WriteString("[")
		b.WriteString(strings.Join(path, "."))
		b.WriteString("]")
		writeTail(b, table.Snippets)
		b.WriteString("\n")
	}
	emitTableBody(b, ctx, table)
}

func emitTableArrayInstance(b *strings.Builder, ctx *GenContext, arrNode, inst *Node) {
	path := withPrefix(ctx, headerPath(arrNode, ctx.top))
	writeComments(b, ctx, inst.Snippets)
	b.WriteString("[[")
	b.WriteString(strings.Join(path, "."))
	b.WriteString("]]")
	writeTail(b, inst.Snippets)
	b.WriteString("\n")
	emitTableBody(b, ctx, inst)
}

func writeValueLine(b *strings.Builder, ctx *GenContext, v *Node) {
	writeComments(b, ctx, v.Snippets)
	b.WriteString(strings.Join(v.ViewPath, "."))
	b.WriteString(" = ")
	b.WriteString(encodeValue(v))
	writeTail(b, v.Snippets)
	b.WriteString("\n")
}

func writeComments(b *strings.Builder, ctx *GenContext, s Snippets) {
	if ctx.NoComments {
		return
	}
	for _, c := range s.PreComments {
		b.WriteString(c)
		b.WriteString("\n")
	}
}

func writeTail(b *strings.Builder, s Snippets) {
	b.WriteString(s.TailComment)
}

// encodeValue renders v's value text: the original raw text if the node was
// parsed and never mutated (preserving e.g. "1_000" or comment-looking
// quoted strings verbatim, per spec.md invariant 11), otherwise a freshly
// encoded canonical form.
func encodeValue(v *Node) string {
	switch v.Kind {
	case KindBoolean, KindInteger, KindFloat, KindString:
		if v.RawValue != "" {
			return v.RawValue
		}
		return EncodeCanonical(v)
	case KindTable:
		return encodeInlineTable(v)
	case KindArray:
		return encodeInlineArray(v)
	default:
		return ""
	}
}

// EncodeCanonical renders v.Value in the canonical (no underscore
// separators, double-quoted string) form, used for nodes created via tree
// edits rather than parsed from source.
func EncodeCanonical(v *Node) string {
	switch v.Kind {
	case KindBoolean:
		if b, _ := v.Value.(bool); b {
			return "true"
		}
		return "false"
	case KindInteger:
		i, _ := v.Value.(int64)
		return strconv.FormatInt(i, 10)
	case KindFloat:
		f, _ := v.Value.(float64)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindString:
		s, _ := v.Value.(string)
		return encodeBasicString(s)
	default:
		return ""
	}
}

func encodeBasicString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func encodeInlineTable(t *Node) string {
	var parts []string
	for _, v := range t.ViewOrder {
		if v.deleted {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s", strings.Join(v.ViewPath, "."), encodeValue(v)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func encodeInlineArray(a *Node) string {
	var parts []string
	for _, c := range a.Children {
		if c.deleted {
			continue
		}
		parts = append(parts, encodeValue(c))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
