package topology

import (
	"testing"
)

func TestExpandRatchet(t *testing.T) {
	set := NewSet()

	if !set.Expand(0, 7) {
		t.Fatal("First expansion of an internal node should change the set")
	}
	if set.Expand(0, 7) {
		t.Error("Re-expanding the same node should be a no-op")
	}
	if set.Len() != 1 {
		t.Errorf("Set length = %d, want 1", set.Len())
	}
	if !set.Contains(0) {
		t.Error("Set should contain node 0")
	}

	// There is no collapse. Once in, always in.
	set.Expand(1, 7)
	set.Expand(2, 7)
	if set.Len() != 3 {
		t.Errorf("Set length = %d, want 3", set.Len())
	}
}

func TestExpandLeafIsNoOp(t *testing.T) {
	set := NewSet()

	// In a 7-node tree, nodes 3..6 are leaves.
	for id := 3; id < 7; id++ {
		if set.Expand(id, 7) {
			t.Errorf("Expanding leaf %d should not change the set", id)
		}
	}
	if set.Len() != 0 {
		t.Errorf("Set length = %d, want 0", set.Len())
	}
}

func TestExpandOutOfRange(t *testing.T) {
	set := NewSet()

	if set.Expand(-1, 7) {
		t.Error("Negative id should be rejected")
	}
	if set.Expand(7, 7) {
		t.Error("Id beyond the tree should be rejected")
	}
	if set.Expand(100, 7) {
		t.Error("Id far beyond the tree should be rejected")
	}
}

func TestExpandBoundaryNode(t *testing.T) {
	// In a 6-node tree, node 2 has exactly one child (5) and is expandable.
	set := NewSet()
	if !set.Expand(2, 6) {
		t.Error("Node with only a left child should be expandable")
	}
	// In a 5-node tree, node 2 has no children (5 and 6 out of range).
	other := NewSet()
	if other.Expand(2, 5) {
		t.Error("Node 2 is a leaf in a 5-node tree")
	}
}

func TestParseSetRoundTrip(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"0,1,4", "0,1,4"},
		{"4,0,1", "0,1,4"},
		{"", ""},
		{"0,,2", "0,2"},
		{"0, 1 ,junk,2", "0,1,2"},
		{"3,3,3", "3"},
	}

	for _, tt := range tests {
		set := ParseSet(tt.raw)
		if got := set.String(); got != tt.want {
			t.Errorf("ParseSet(%q).String() = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNilSetIsEmpty(t *testing.T) {
	var set *Set

	if set.Contains(0) {
		t.Error("Nil set should contain nothing")
	}
	if set.Len() != 0 {
		t.Errorf("Nil set length = %d, want 0", set.Len())
	}
	if ids := set.IDs(); len(ids) != 0 {
		t.Errorf("Nil set IDs = %v, want empty", ids)
	}
}

func TestExpandIntoZeroValueSet(t *testing.T) {
	// A zero-value Set must be usable without NewSet.
	var set Set
	if !set.Expand(0, 7) {
		t.Fatal("Expanding into a zero-value set should work")
	}
	if !set.Contains(0) {
		t.Error("Zero-value set should contain node 0 after expansion")
	}
}
