package results

import (
	"image/color"
	"math"
	"strconv"
)

// Canvas geometry shared by the SVG and PNG renderers.
const (
	plotWidth  = 800
	plotHeight = 480

	marginLeft   = 70
	marginRight  = 30
	marginTop    = 50
	marginBottom = 60

	maxXLabels = 12
)

var (
	colorBackdrop = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorAxis     = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorGrid     = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	colorSeries   = color.RGBA{0x1f, 0x77, 0xb4, 0xff} // the familiar plotting blue
	colorBoxFill  = color.RGBA{0xad, 0xd8, 0xe6, 0xff}
	colorInk      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

// frame maps data coordinates onto the fixed canvas.
type frame struct {
	lo, hi float64
	n      int
}

func newFrame(p *Plot) frame {
	lo, hi := p.yRange()
	return frame{lo: lo, hi: hi, n: len(p.Values)}
}

func (f frame) plotW() float64 { return plotWidth - marginLeft - marginRight }
func (f frame) plotH() float64 { return plotHeight - marginTop - marginBottom }

// y converts a data value to a pixel row.
func (f frame) y(v float64) float64 {
	frac := (v - f.lo) / (f.hi - f.lo)
	return marginTop + f.plotH()*(1-frac)
}

// x converts a sample index to the pixel column at its slot center.
func (f frame) x(i int) float64 {
	if f.n <= 1 {
		return marginLeft + f.plotW()/2
	}
	slot := f.plotW() / float64(f.n)
	return marginLeft + slot*(float64(i)+0.5)
}

// barWidth leaves a gap between adjacent bars.
func (f frame) barWidth() float64 {
	if f.n == 0 {
		return 0
	}
	return f.plotW() / float64(f.n) * 0.7
}

// barBase is the data value bars grow from.
func (f frame) barBase() float64 {
	return math.Max(f.lo, math.Min(f.hi, 0))
}

// ticks returns the y axis tick values, low to high.
func (f frame) ticks() []float64 {
	step := niceStep(f.hi - f.lo)
	var ticks []float64
	for v := math.Ceil(f.lo/step) * step; v <= f.hi+step/1e6; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

// labelStep thins x labels so at most maxXLabels are drawn.
func (f frame) labelStep() int {
	if f.n <= maxXLabels {
		return 1
	}
	return (f.n + maxXLabels - 1) / maxXLabels
}

// niceStep picks a 1/2/5 tick spacing giving about five ticks.
func niceStep(span float64) float64 {
	raw := span / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

// formatTick renders a tick value without trailing noise.
func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
