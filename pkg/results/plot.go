package results

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Style selects how the first two CSV columns are drawn.
type Style string

const (
	StyleLine Style = "line"
	StyleBar  Style = "bar"
	StyleBox  Style = "box"
)

// ParseStyle maps the request parameter to a Style. Empty defaults to the
// line graph, matching the original picker's default entry.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "", "line", "default":
		return StyleLine, nil
	case "bar":
		return StyleBar, nil
	case "box":
		return StyleBox, nil
	default:
		return "", fmt.Errorf("unknown plot style: %q", s)
	}
}

// BoxStats are the five numbers a box plot draws.
type BoxStats struct {
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Plot is a renderable chart built from a results table.
type Plot struct {
	Style  Style
	Title  string
	XLabel string
	YLabel string
	Labels []string  // x axis labels, one per value
	Values []float64 // y values
	Box    BoxStats  // filled for StyleBox
}

// BuildPlot prepares a chart of the first two columns of t. Tables with
// fewer than two columns cannot be plotted.
func BuildPlot(t *Table, style Style) (*Plot, error) {
	if len(t.Columns) < 2 {
		return nil, ErrTooFewColumns
	}

	xName, yName := t.Columns[0], t.Columns[1]
	labels, values := t.Series(1)
	if len(values) == 0 {
		return nil, fmt.Errorf("column %q has no numeric values", yName)
	}

	p := &Plot{
		Style:  style,
		XLabel: xName,
		YLabel: yName,
		Labels: labels,
		Values: values,
	}

	switch style {
	case StyleBox:
		p.Title = fmt.Sprintf("Box Plot: %s", yName)
		p.Box = boxStats(values)
	case StyleBar:
		p.Title = fmt.Sprintf("Bar Chart: %s vs %s", xName, yName)
	default:
		p.Title = fmt.Sprintf("Graph: %s vs %s", xName, yName)
	}
	return p, nil
}

// boxStats computes the five-number summary. Quantiles use the empirical
// CDF over the sorted sample.
func boxStats(values []float64) BoxStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return BoxStats{
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// yRange returns the plotted value range, padded so flat series still get
// a visible axis.
func (p *Plot) yRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if p.Style == StyleBar && lo > 0 {
		lo = 0 // bars grow from zero
	}
	if hi == lo {
		pad := math.Abs(hi) * 0.1
		if pad == 0 {
			pad = 1
		}
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}
