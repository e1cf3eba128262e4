package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/KaramelBytes/edaloom/internal/analysis"
)

const (
	heatCell   = 64
	charWidth  = 7 // basicfont.Face7x13
	labelChars = 16
	heatMargin = 12
)

// HeatmapPNG draws the matrix as a coolwarm grid with every coefficient
// printed in its cell. Undefined coefficients are left grey and blank.
func HeatmapPNG(m *analysis.CorrMatrix) ([]byte, error) {
	n := len(m.Columns)
	if n == 0 {
		return nil, fmt.Errorf("heatmap: %w", ErrNoChart)
	}
	left := labelChars*charWidth + heatMargin
	top := heatMargin
	bottom := 3 * basicfont.Face7x13.Height
	width := left + n*heatCell + heatMargin
	height := top + n*heatCell + bottom
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := m.Values[i][j]
			x0, y0 := left+j*heatCell, top+i*heatCell
			cell := image.Rect(x0, y0, x0+heatCell-1, y0+heatCell-1)
			fill := color.RGBA{R: 220, G: 220, B: 220, A: 255}
			if !math.IsNaN(r) {
				fill = coolwarm(r)
			}
			draw.Draw(img, cell, image.NewUniform(fill), image.Point{}, draw.Src)
			if math.IsNaN(r) {
				continue
			}
			text := fmt.Sprintf("%.2f", r)
			ink := color.Color(color.Black)
			if math.Abs(r) > 0.6 {
				ink = color.White
			}
			drawLabel(img, text, x0+(heatCell-len(text)*charWidth)/2, y0+heatCell/2+4, ink)
		}
	}
	for i, name := range m.Columns {
		label := truncate(name, labelChars)
		// Row labels right-aligned against the grid.
		drawLabel(img, label, left-heatMargin/2-len(label)*charWidth, top+i*heatCell+heatCell/2+4, color.Black)
		// Column labels below, clipped to the cell width.
		short := truncate(name, heatCell/charWidth)
		drawLabel(img, short, left+i*heatCell+(heatCell-len(short)*charWidth)/2, top+n*heatCell+basicfont.Face7x13.Height+2, color.Black)
	}
	return encodePNG(img)
}

// coolwarm maps -1..1 to blue..white..red.
func coolwarm(r float64) color.RGBA {
	cold := [3]float64{59, 76, 192}
	mid := [3]float64{221, 221, 221}
	warm := [3]float64{180, 4, 38}
	from, to := mid, warm
	t := r
	if r < 0 {
		to, t = cold, -r
	}
	t = math.Min(1, math.Max(0, t))
	mix := func(k int) uint8 { return uint8(math.Round(from[k] + (to[k]-from[k])*t)) }
	return color.RGBA{R: mix(0), G: mix(1), B: mix(2), A: 255}
}

func drawLabel(dst draw.Image, text string, x, y int, ink color.Color) {
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	dr.DrawString(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "~"
}
