package topology

import (
	"sort"
	"strconv"
	"strings"
)

// Set tracks which node ids have been expanded. Expansion only ever grows
// the set; there is no collapse operation. Set is not safe for concurrent
// use, callers serialize access.
type Set struct {
	ids map[int]struct{}
}

// NewSet returns an empty expansion set.
func NewSet() *Set {
	return &Set{ids: make(map[int]struct{})}
}

// ParseSet builds a set from a comma-separated list of node ids, as used in
// the "expanded" query parameter. Empty and non-numeric entries are skipped.
// Range checks happen at expand time, not here, so a parsed set may carry
// ids outside the current tree; rendering ignores them.
func ParseSet(s string) *Set {
	set := NewSet()
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		set.ids[id] = struct{}{}
	}
	return set
}

// Expand records id as expanded within a tree of nodeCount nodes. It
// reports whether the set changed. Leaves (2*id+1 >= nodeCount), ids
// outside [0, nodeCount) and already-expanded ids are no-ops.
func (s *Set) Expand(id, nodeCount int) bool {
	if id < 0 || id >= nodeCount {
		return false
	}
	if 2*id+1 >= nodeCount {
		return false
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	if s.ids == nil {
		s.ids = make(map[int]struct{})
	}
	s.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is expanded. A nil set contains nothing.
func (s *Set) Contains(id int) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded ids. A nil set has length zero.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the expanded ids in ascending order.
func (s *Set) IDs() []int {
	if s == nil {
		return nil
	}
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// String renders the set in the comma-separated wire form accepted by
// ParseSet.
func (s *Set) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// ParseNodeCount interprets a raw node-count input. Empty or unparseable
// input falls back to DefaultNodeCount, mirroring the panel's behavior for
// a cleared or invalid field. Negative and zero values pass through
// unchanged; BuildElements renders them as an empty topology.
func ParseNodeCount(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultNodeCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultNodeCount
	}
	return n
}
