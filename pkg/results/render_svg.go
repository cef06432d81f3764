package results

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo"
)

// RenderSVG draws the plot as an SVG document onto w.
func RenderSVG(w io.Writer, p *Plot) error {
	f := newFrame(p)

	canvas := svg.New(w)
	canvas.Start(plotWidth, plotHeight)
	canvas.Rect(0, 0, plotWidth, plotHeight, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	canvas.Text(plotWidth/2, 28, p.Title,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold;text-anchor:middle", css(colorInk)))

	// Horizontal grid and y tick labels.
	for _, tick := range f.ticks() {
		y := int(f.y(tick))
		canvas.Line(marginLeft, y, plotWidth-marginRight, y,
			fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGrid)))
		canvas.Text(marginLeft-8, y+4, formatTick(tick),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:end", css(colorSubtle)))
	}

	// Axes.
	canvas.Line(marginLeft, marginTop, marginLeft, plotHeight-marginBottom,
		fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorAxis)))
	canvas.Line(marginLeft, plotHeight-marginBottom, plotWidth-marginRight, plotHeight-marginBottom,
		fmt.Sprintf("stroke:%s;stroke-width:1.5", css(colorAxis)))

	switch p.Style {
	case StyleBox:
		drawBoxSVG(canvas, f, p.Box)
	case StyleBar:
		drawBarsSVG(canvas, f, p.Values)
	default:
		drawLineSVG(canvas, f, p.Values)
	}

	// X labels, thinned when crowded. The box plot has a single slot.
	if p.Style == StyleBox {
		canvas.Text(int(f.x(0)), plotHeight-marginBottom+18, p.YLabel,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	} else {
		step := f.labelStep()
		for i, label := range p.Labels {
			if i%step != 0 {
				continue
			}
			canvas.Text(int(f.x(i)), plotHeight-marginBottom+18, label,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		}
		canvas.Text((marginLeft+plotWidth-marginRight)/2, plotHeight-16, p.XLabel,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle", css(colorInk)))
	}

	// Y axis label, rotated along the left edge.
	canvas.Gtransform(fmt.Sprintf("rotate(-90,%d,%d)", 20, plotHeight/2))
	canvas.Text(20, plotHeight/2, p.YLabel,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;text-anchor:middle", css(colorInk)))
	canvas.Gend()

	canvas.End()
	return nil
}

func drawLineSVG(canvas *svg.SVG, f frame, values []float64) {
	xs := make([]int, len(values))
	ys := make([]int, len(values))
	for i, v := range values {
		xs[i] = int(f.x(i))
		ys[i] = int(f.y(v))
	}
	if len(values) > 1 {
		canvas.Polyline(xs, ys,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorSeries)))
	}
	for i := range values {
		canvas.Circle(xs[i], ys[i], 3, fmt.Sprintf("fill:%s", css(colorSeries)))
	}
}

func drawBarsSVG(canvas *svg.SVG, f frame, values []float64) {
	base := f.y(f.barBase())
	bw := f.barWidth()
	for i, v := range values {
		top := f.y(v)
		y, h := top, base-top
		if h < 0 {
			y, h = base, -h
		}
		canvas.Rect(int(f.x(i)-bw/2), int(y), int(bw), int(h),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorSeries), css(colorAxis)))
	}
}

func drawBoxSVG(canvas *svg.SVG, f frame, b BoxStats) {
	const boxW, capW = 80, 40
	cx := int(f.x(0))
	style := fmt.Sprintf("stroke:%s;stroke-width:2", css(colorSeries))

	// Whiskers with caps.
	canvas.Line(cx, int(f.y(b.Min)), cx, int(f.y(b.Q1)), style)
	canvas.Line(cx, int(f.y(b.Q3)), cx, int(f.y(b.Max)), style)
	canvas.Line(cx-capW/2, int(f.y(b.Min)), cx+capW/2, int(f.y(b.Min)), style)
	canvas.Line(cx-capW/2, int(f.y(b.Max)), cx+capW/2, int(f.y(b.Max)), style)

	// Quartile box and median.
	canvas.Rect(cx-boxW/2, int(f.y(b.Q3)), boxW, int(f.y(b.Q1))-int(f.y(b.Q3)),
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", css(colorBoxFill), css(colorSeries)))
	canvas.Line(cx-boxW/2, int(f.y(b.Median)), cx+boxW/2, int(f.y(b.Median)),
		fmt.Sprintf("stroke:%s;stroke-width:2", css(colorInk)))
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
