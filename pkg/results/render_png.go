package results

import (
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// RenderPNG draws the plot as a PNG image onto w.
func RenderPNG(w io.Writer, p *Plot) error {
	f := newFrame(p)

	dc := gg.NewContext(plotWidth, plotHeight)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorInk)
	dc.DrawStringAnchored(p.Title, plotWidth/2, 28, 0.5, 0.5)

	// Horizontal grid and y tick labels.
	for _, tick := range f.ticks() {
		y := f.y(tick)
		dc.SetColor(colorGrid)
		dc.SetLineWidth(1)
		dc.DrawLine(marginLeft, y, plotWidth-marginRight, y)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(formatTick(tick), marginLeft-8, y, 1, 0.5)
	}

	// Axes.
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1.5)
	dc.DrawLine(marginLeft, marginTop, marginLeft, plotHeight-marginBottom)
	dc.DrawLine(marginLeft, plotHeight-marginBottom, plotWidth-marginRight, plotHeight-marginBottom)
	dc.Stroke()

	switch p.Style {
	case StyleBox:
		drawBoxPNG(dc, f, p.Box)
	case StyleBar:
		drawBarsPNG(dc, f, p.Values)
	default:
		drawLinePNG(dc, f, p.Values)
	}

	dc.SetColor(colorSubtle)
	if p.Style == StyleBox {
		dc.DrawStringAnchored(p.YLabel, f.x(0), plotHeight-marginBottom+14, 0.5, 0.5)
	} else {
		step := f.labelStep()
		for i, label := range p.Labels {
			if i%step != 0 {
				continue
			}
			dc.DrawStringAnchored(label, f.x(i), plotHeight-marginBottom+14, 0.5, 0.5)
		}
		dc.SetColor(colorInk)
		dc.DrawStringAnchored(p.XLabel, (marginLeft+plotWidth-marginRight)/2, plotHeight-16, 0.5, 0.5)
	}

	// Y axis label, rotated along the left edge.
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), 20, plotHeight/2)
	dc.SetColor(colorInk)
	dc.DrawStringAnchored(p.YLabel, 20, plotHeight/2, 0.5, 0.5)
	dc.Pop()

	return dc.EncodePNG(w)
}

func drawLinePNG(dc *gg.Context, f frame, values []float64) {
	dc.SetColor(colorSeries)
	dc.SetLineWidth(2)
	for i := 1; i < len(values); i++ {
		dc.DrawLine(f.x(i-1), f.y(values[i-1]), f.x(i), f.y(values[i]))
	}
	dc.Stroke()
	for i, v := range values {
		dc.DrawCircle(f.x(i), f.y(v), 3)
		dc.Fill()
	}
}

func drawBarsPNG(dc *gg.Context, f frame, values []float64) {
	base := f.y(f.barBase())
	bw := f.barWidth()
	for i, v := range values {
		top := f.y(v)
		y, h := top, base-top
		if h < 0 {
			y, h = base, -h
		}
		dc.SetColor(colorSeries)
		dc.DrawRectangle(f.x(i)-bw/2, y, bw, h)
		dc.Fill()
		dc.SetColor(colorAxis)
		dc.SetLineWidth(1)
		dc.DrawRectangle(f.x(i)-bw/2, y, bw, h)
		dc.Stroke()
	}
}

func drawBoxPNG(dc *gg.Context, f frame, b BoxStats) {
	const boxW, capW = 80.0, 40.0
	cx := f.x(0)

	dc.SetColor(colorSeries)
	dc.SetLineWidth(2)
	dc.DrawLine(cx, f.y(b.Min), cx, f.y(b.Q1))
	dc.DrawLine(cx, f.y(b.Q3), cx, f.y(b.Max))
	dc.DrawLine(cx-capW/2, f.y(b.Min), cx+capW/2, f.y(b.Min))
	dc.DrawLine(cx-capW/2, f.y(b.Max), cx+capW/2, f.y(b.Max))
	dc.Stroke()

	dc.SetColor(colorBoxFill)
	dc.DrawRectangle(cx-boxW/2, f.y(b.Q3), boxW, f.y(b.Q1)-f.y(b.Q3))
	dc.Fill()
	dc.SetColor(colorSeries)
	dc.DrawRectangle(cx-boxW/2, f.y(b.Q3), boxW, f.y(b.Q1)-f.y(b.Q3))
	dc.Stroke()

	dc.SetColor(colorInk)
	dc.DrawLine(cx-boxW/2, f.y(b.Median), cx+boxW/2, f.y(b.Median))
	dc.Stroke()
}
