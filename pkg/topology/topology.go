package topology

import "fmt"

// Placeholder hardware attributes attached to every rendered element.
// The panel displays these in hover tooltips; they are static labels,
// not measurements.
const (
	NodeCPU       = "2.5 GHz"
	NodeMemory    = "8GB"
	EdgeBandwidth = 100
)

// DefaultNodeCount is used when the node-count input is absent or not
// parseable as an integer.
const DefaultNodeCount = 3

// FlatRenderMax is the largest node count rendered without lazy expansion.
// Trees at or below this size always show every node.
const FlatRenderMax = 3

// ElementData is the payload of a single graph element in the wire format
// the topology view consumes. Node elements set ID and Label plus the
// hardware placeholders; edge elements set Source and Target plus
// Bandwidth. The unused half stays empty and is omitted from JSON.
type ElementData struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label,omitempty"`
	CPU       string `json:"cpu,omitempty"`
	Memory    string `json:"memory,omitempty"`
	Source    string `json:"source,omitempty"`
	Target    string `json:"target,omitempty"`
	Bandwidth int    `json:"bandwidth,omitempty"`
}

// Element is one node or edge of the rendered topology.
type Element struct {
	Data ElementData `json:"data"`
}

// IsNode reports whether the element is a node element.
func (e Element) IsNode() bool { return e.Data.ID != "" }

// IsEdge reports whether the element is an edge element.
func (e Element) IsEdge() bool { return e.Data.Source != "" }

func nodeElement(id int, label string) Element {
	return Element{Data: ElementData{
		ID:     fmt.Sprintf("%d", id),
		Label:  label,
		CPU:    NodeCPU,
		Memory: NodeMemory,
	}}
}

func edgeElement(from, to int) Element {
	return Element{Data: ElementData{
		Source:    fmt.Sprintf("%d", from),
		Target:    fmt.Sprintf("%d", to),
		Bandwidth: EdgeBandwidth,
	}}
}

// DescendantCount returns the number of nodes in the subtree rooted at i,
// excluding i itself, in a complete binary tree of nodeCount nodes where
// node i's children are 2i+1 and 2i+2. The count is recomputed on every
// call; there is no cache.
func DescendantCount(i, nodeCount int) int {
	count := 0
	left := 2*i + 1
	right := 2*i + 2
	if left < nodeCount {
		count += 1 + DescendantCount(left, nodeCount)
	}
	if right < nodeCount {
		count += 1 + DescendantCount(right, nodeCount)
	}
	return count
}

// BuildElements computes the visible nodes and edges of a complete binary
// tree of nodeCount nodes given the set of expanded node ids. A nil set is
// treated as empty.
//
// Trees of FlatRenderMax or fewer nodes render flat: every node and every
// in-range edge, plain labels, expansion ignored. Larger trees render
// lazily from the root: a node with children that is not expanded collapses
// its subtree and is labeled "Node i [+k]" with k hidden descendants; an
// expanded node emits its children and connecting edges, with the same rule
// applied at each level. nodeCount <= 0 yields no elements.
func BuildElements(nodeCount int, expanded *Set) []Element {
	if nodeCount <= 0 {
		return nil
	}
	if nodeCount <= FlatRenderMax {
		return buildFlat(nodeCount)
	}
	elements := make([]Element, 0, nodeCount)
	appendVisible(&elements, 0, nodeCount, expanded)
	return elements
}

// buildFlat emits all nodes first, then all in-range edges.
func buildFlat(nodeCount int) []Element {
	elements := make([]Element, 0, 2*nodeCount)
	for i := 0; i < nodeCount; i++ {
		elements = append(elements, nodeElement(i, fmt.Sprintf("Node %d", i)))
	}
	for i := 0; i < nodeCount; i++ {
		left := 2*i + 1
		right := 2*i + 2
		if left < nodeCount {
			elements = append(elements, edgeElement(i, left))
		}
		if right < nodeCount {
			elements = append(elements, edgeElement(i, right))
		}
	}
	return elements
}

// appendVisible walks the visible fringe depth-first. Each child subtree is
// emitted before the edge that connects it to its parent, preserving the
// element order clients already rely on.
func appendVisible(elements *[]Element, i, nodeCount int, expanded *Set) {
	if i >= nodeCount {
		return
	}
	left := 2*i + 1
	right := 2*i + 2
	hasChildren := left < nodeCount

	label := fmt.Sprintf("Node %d", i)
	if hasChildren && !expanded.Contains(i) {
		label = fmt.Sprintf("Node %d [+%d]", i, DescendantCount(i, nodeCount))
	}
	*elements = append(*elements, nodeElement(i, label))

	if !expanded.Contains(i) {
		return
	}
	if left < nodeCount {
		appendVisible(elements, left, nodeCount, expanded)
		*elements = append(*elements, edgeElement(i, left))
	}
	if right < nodeCount {
		appendVisible(elements, right, nodeCount, expanded)
		*elements = append(*elements, edgeElement(i, right))
	}
}

// Nodes returns only the node elements of elements, in order.
func Nodes(elements []Element) []Element {
	nodes := make([]Element, 0, len(elements))
	for _, e := range elements {
		if e.IsNode() {
			nodes = append(nodes, e)
		}
	}
	return nodes
}

// Edges returns only the edge elements of elements, in order.
func Edges(elements []Element) []Element {
	edges := make([]Element, 0, len(elements))
	for _, e := range elements {
		if e.IsEdge() {
			edges = append(edges, e)
		}
	}
	return edges
}
