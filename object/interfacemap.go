package object

import "github.com/eclipse-openvehicle-api/openvehicle-api-sub008/capability"

// Queryable is implemented by anything that can answer a capability query:
// objects themselves, and sub-objects/bases reached through a Member or
// Chain entry (spec.md §4.1 "Member delegate" / "Chain to base").
type Queryable interface {
	QueryInterface(id capability.ID) capability.Handle
}

// Resolver produces the capability handle for a Direct entry once its id has
// matched. self is the concrete instance the InterfaceMap was built for.
type Resolver func(self interface{}) capability.Handle

// SectionPredicate gates a group of entries. A nil predicate means the
// section is always active. Predicates are evaluated against self so a
// class can expose different capabilities depending on its own runtime
// state (spec.md §4.1: "a maintenance-only capability ... predicate returns
// true only if the app is main/isolated").
type SectionPredicate func(self interface{}) bool

type entryKind int

const (
	entryDirect entryKind = iota
	entryDelegate
)

type mapEntry struct {
	kind     entryKind
	id       capability.ID // only meaningful for entryDirect
	resolver Resolver      // only meaningful for entryDirect
	target   func(self interface{}) Queryable // only meaningful for entryDelegate
	section  int
}

// InterfaceMap is the ordered, per-class capability table described in
// spec.md §4.1. It is built once (see Builder) when a class is registered
// and then shared, read-only, by every instance of that class.
type InterfaceMap struct {
	entries    []mapEntry
	predicates map[int]SectionPredicate
}

// Query evaluates the map top-to-bottom for id against self, as spec.md
// §4.1 requires: "Failure: absent match returns null (never fails
// loudly)." Section-gated entries are skipped entirely when their
// predicate (if any) returns false.
func (m *InterfaceMap) Query(self interface{}, id capability.ID) capability.Handle {
	if m == nil {
		return capability.NullHandle
	}
	for _, e := range m.entries {
		if pred, ok := m.predicates[e.section]; ok && pred != nil && !pred(self) {
			continue
		}
		switch e.kind {
		case entryDirect:
			if e.id == id {
				return e.resolver(self)
			}
		case entryDelegate:
			target := e.target(self)
			if target == nil {
				continue
			}
			if h := target.QueryInterface(id); !h.IsNull() {
				return h
			}
		}
	}
	return capability.NullHandle
}

// Builder assembles an InterfaceMap in declaration order. It is meant to be
// invoked once per class, e.g. from a package-level var initializer, per
// the Design Notes ("Generate the table once per class ... rather than
// consulting a type hierarchy at query time").
type Builder struct {
	m              *InterfaceMap
	currentSection int
}

// NewBuilder starts a fresh InterfaceMap builder. Section 0 (the default)
// is always active.
func NewBuilder() *Builder {
	return &Builder{
		m: &InterfaceMap{
			predicates: map[int]SectionPredicate{},
		},
		currentSection: 0,
	}
}

// Section switches subsequent entries into section n, gated by pred (nil
// means always-active). Sections may be revisited; the predicate last set
// for a section number wins.
func (b *Builder) Section(n int, pred SectionPredicate) *Builder {
	b.currentSection = n
	b.m.predicates[n] = pred
	return b
}

// Direct registers a capability that self itself implements.
func (b *Builder) Direct(id capability.ID, resolver Resolver) *Builder {
	b.m.entries = append(b.m.entries, mapEntry{
		kind: entryDirect, id: id, resolver: resolver, section: b.currentSection,
	})
	return b
}

// Delegate forwards any id not yet matched by an earlier entry to a named
// sub-object (spec.md §4.1 "Member delegate"). target is evaluated lazily,
// once per query, so it may return nil if the sub-object has not been
// constructed yet.
func (b *Builder) Delegate(target func(self interface{}) Queryable) *Builder {
	b.m.entries = append(b.m.entries, mapEntry{
		kind: entryDelegate, target: target, section: b.currentSection,
	})
	return b
}

// Chain forwards any unmatched id to a base class's InterfaceMap, evaluated
// against the same self (spec.md §4.1 "Chain to base").
func (b *Builder) Chain(base *InterfaceMap) *Builder {
	return b.Delegate(func(self interface{}) Queryable {
		return chainTarget{base: base, self: self}
	})
}

// Build finalizes the map. The returned map is safe for concurrent Query
// calls; it is never mutated after Build.
func (b *Builder) Build() *InterfaceMap {
	return b.m
}

type chainTarget struct {
	base *InterfaceMap
	self interface{}
}

func (c chainTarget) QueryInterface(id capability.ID) capability.Handle {
	return c.base.Query(c.self, id)
}
