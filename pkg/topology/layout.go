package topology

import (
	"math/bits"
	"sort"
	"strconv"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width   float64 // Canvas width
	Height  float64 // Canvas height
	Padding float64 // Padding from edges
}

// DefaultLayoutConfig matches the canvas the dashboard renders into.
func DefaultLayoutConfig() *LayoutConfig {
	return &LayoutConfig{Width: 800, Height: 600, Padding: 50}
}

// BreadthFirstLayout arranges visible nodes in rows by tree depth, the
// root on top. Because node ids are heap indices, a node's depth is a
// function of its id alone, so the layout is deterministic for a given
// element set.
type BreadthFirstLayout struct {
	config *LayoutConfig
}

// NewBreadthFirstLayout creates a new breadth-first layout
func NewBreadthFirstLayout(config *LayoutConfig) *BreadthFirstLayout {
	if config == nil {
		config = DefaultLayoutConfig()
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return &BreadthFirstLayout{config: config}
}

// depth of heap index i: floor(log2(i+1)).
func depth(id int) int {
	return bits.Len(uint(id)+1) - 1
}

// ComputeLayout assigns a position to every node element, keyed by element
// id. Edge elements are ignored.
func (bfl *BreadthFirstLayout) ComputeLayout(elements []Element) map[string]Position {
	positions := make(map[string]Position)

	ids := make([]int, 0, len(elements))
	for _, e := range elements {
		if !e.IsNode() {
			continue
		}
		id, err := strconv.Atoi(e.Data.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return positions
	}

	// Group ids into levels by depth, ordered left to right within a level.
	sort.Ints(ids)
	maxDepth := 0
	for _, id := range ids {
		if d := depth(id); d > maxDepth {
			maxDepth = d
		}
	}
	levels := make([][]int, maxDepth+1)
	for _, id := range ids {
		d := depth(id)
		levels[d] = append(levels[d], id)
	}

	// Position nodes
	levelHeight := (bfl.config.Height - 2*bfl.config.Padding) / float64(len(levels))

	for levelIdx, level := range levels {
		y := bfl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		levelWidth := bfl.config.Width - 2*bfl.config.Padding
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, id := range level {
			x := bfl.config.Padding + spacing*float64(nodeIdx+1)
			positions[strconv.Itoa(id)] = Position{X: x, Y: y}
		}
	}

	return positions
}
