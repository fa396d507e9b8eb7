package toml

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a Direct Access path (spec.md §4.7 "direct access
// path syntax"): either a key lookup on a table, or an index lookup on an
// array/table-array. An index segment with Last set means "the final
// element", spec.md's rule for a trailing empty segment after '.' or an
// empty "[]".
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
	Last    bool
}

// ParsePath splits a Direct Access path into its segments. Segments are
// separated by '.'; an array element may be addressed either as
// "array[3]" or as the dotted form "array.3". A trailing empty segment
// (a path ending in "." or an index of "[]") addresses the last element of
// the preceding array, per spec.md §4.7.
func ParsePath(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("toml: empty access path")
	}
	var segs []Segment
	for _, raw := range strings.Split(path, ".") {
		if raw == "" {
			if len(segs) == 0 {
				return nil, fmt.Errorf("toml: access path %q starts with an empty segment", path)
			}
			segs = append(segs, Segment{IsIndex: true, Last: true})
			continue
		}
		key := raw
		for {
			open := strings.IndexByte(key, '[')
			if open < 0 {
				break
			}
			close := strings.IndexByte(key[open:], ']')
			if close < 0 {
				return nil, fmt.Errorf("toml: unterminated '[' in access path %q", path)
			}
			close += open
			head := key[:open]
			inner := key[open+1 : close]
			if head != "" {
				segs = append(segs, Segment{Key: head})
			}
			if inner == "" {
				segs = append(segs, Segment{IsIndex: true, Last: true})
			} else {
				n, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("toml: bad index %q in access path %q", inner, path)
				}
				segs = append(segs, Segment{IsIndex: true, Index: n})
			}
			key = key[close+1:]
		}
		if key != "" {
			if n, err := strconv.Atoi(key); err == nil {
				segs = append(segs, Segment{IsIndex: true, Index: n})
			} else {
				segs = append(segs, Segment{Key: key})
			}
		}
	}
	return segs, nil
}

// Access navigates from start following path, per spec.md §4.7. It returns
// the node addressed by the full path, or an error naming the first
// segment that could not be resolved.
func Access(start *Node, path string) (*Node, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return AccessSegments(start, segs)
}

// AccessSegments is Access with an already-parsed segment list, useful when
// callers want to reuse a parsed path across many trees.
func AccessSegments(start *Node, segs []Segment) (*Node, error) {
	cur := start
	for _, s := range segs {
		if cur == nil || cur.deleted {
			return nil, fmt.Errorf("toml: access path descends through a deleted or missing node")
		}
		if s.IsIndex {
			if !cur.IsCollection() {
				return nil, fmt.Errorf("toml: index access on non-collection node %q", cur.Name)
			}
			idx := s.Index
			if s.Last {
				idx = len(cur.Children) - 1
			}
			if idx < 0 || idx >= len(cur.Children) {
				return nil, fmt.Errorf("toml: index %d out of range (len %d)", idx, len(cur.Children))
			}
			cur = cur.Children[idx]
			continue
		}
		next := cur.Get(s.Key)
		if next == nil {
			return nil, fmt.Errorf("toml: key %q not found", s.Key)
		}
		cur = next
	}
	return cur, nil
}
