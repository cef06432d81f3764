package topology

import (
	"reflect"
	"testing"
)

func TestBreadthFirstLayoutRows(t *testing.T) {
	set := NewSet()
	set.Expand(0, 7)
	elements := BuildElements(7, set)

	layout := NewBreadthFirstLayout(&LayoutConfig{Width: 800, Height: 600, Padding: 50})
	positions := layout.ComputeLayout(elements)

	if len(positions) != 3 {
		t.Fatalf("Expected positions for 3 nodes, got %d", len(positions))
	}

	root := positions["0"]
	left := positions["1"]
	right := positions["2"]

	// Root sits above its children, children share a row.
	if root.Y >= left.Y {
		t.Errorf("Root y=%f should be above child y=%f", root.Y, left.Y)
	}
	if left.Y != right.Y {
		t.Errorf("Siblings should share a row: %f vs %f", left.Y, right.Y)
	}
	// Lower ids sit to the left within a row.
	if left.X >= right.X {
		t.Errorf("Node 1 x=%f should be left of node 2 x=%f", left.X, right.X)
	}
}

func TestBreadthFirstLayoutWithinBounds(t *testing.T) {
	set := NewSet()
	for i := 0; i < 7; i++ {
		set.Expand(i, 15)
	}
	elements := BuildElements(15, set)

	config := &LayoutConfig{Width: 800, Height: 600, Padding: 50}
	layout := NewBreadthFirstLayout(config)
	positions := layout.ComputeLayout(elements)

	if len(positions) != 15 {
		t.Fatalf("Expected positions for 15 nodes, got %d", len(positions))
	}
	for id, pos := range positions {
		if pos.X < config.Padding || pos.X > config.Width-config.Padding {
			t.Errorf("Node %s x=%f outside horizontal bounds", id, pos.X)
		}
		if pos.Y < config.Padding || pos.Y > config.Height-config.Padding {
			t.Errorf("Node %s y=%f outside vertical bounds", id, pos.Y)
		}
	}
}

func TestBreadthFirstLayoutDeterministic(t *testing.T) {
	set := ParseSet("0,1,2")
	elements := BuildElements(12, set)

	layout := NewBreadthFirstLayout(nil)
	first := layout.ComputeLayout(elements)
	second := layout.ComputeLayout(elements)

	if !reflect.DeepEqual(first, second) {
		t.Error("Layout should be deterministic for the same elements")
	}
}

func TestBreadthFirstLayoutEmpty(t *testing.T) {
	layout := NewBreadthFirstLayout(nil)
	positions := layout.ComputeLayout(nil)
	if len(positions) != 0 {
		t.Errorf("Expected no positions, got %d", len(positions))
	}
}

func TestBreadthFirstLayoutSingleNode(t *testing.T) {
	elements := BuildElements(1, nil)

	config := &LayoutConfig{Width: 800, Height: 600, Padding: 50}
	layout := NewBreadthFirstLayout(config)
	positions := layout.ComputeLayout(elements)

	pos, ok := positions["0"]
	if !ok {
		t.Fatal("Missing position for node 0")
	}
	if pos.X != config.Width/2 {
		t.Errorf("Single node x=%f, want centered at %f", pos.X, config.Width/2)
	}
}
