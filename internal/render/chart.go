// Package render turns exploration results into PNG charts and terminal text.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/eda"
)

// ErrNoChart is returned for results that have no graphical form.
var ErrNoChart = errors.New("result has no chart")

var (
	barFill   = drawing.Color{R: 31, G: 119, B: 180, A: 200}
	barStroke = drawing.Color{R: 31, G: 119, B: 180, A: 255}
)

// pointStyle returns a style that renders points only (no connecting line)
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    3,
		DotColor:    col,
	}
}

// Size is a chart canvas in pixels.
type Size struct {
	Width, Height int
}

var (
	DefaultSize = Size{Width: 800, Height: 480}
	pairCell    = Size{Width: 260, Height: 240}
)

// PNG renders the chart form of a result: a histogram, a heatmap or a
// pairplot grid. Other kinds return ErrNoChart.
func PNG(res *eda.Result) ([]byte, error) {
	switch res.Display.Kind {
	case eda.KindHistogram:
		return HistogramPNG(*res.Display.Histogram, DefaultSize)
	case eda.KindMatrix:
		return HeatmapPNG(res.Display.Matrix)
	case eda.KindPlotGrid:
		return PairplotPNG(res.Display.Grid)
	}
	return nil, fmt.Errorf("%s: %w", res.Op, ErrNoChart)
}

// HistogramPNG draws the bins as a filled step outline.
func HistogramPNG(h analysis.Histogram, size Size) ([]byte, error) {
	ch := histogramChart(h, size, true)
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render histogram: %w", err)
	}
	return buf.Bytes(), nil
}

func histogramChart(h analysis.Histogram, size Size, titled bool) chart.Chart {
	n := len(h.Counts)
	xs := make([]float64, 0, 2*n+2)
	ys := make([]float64, 0, 2*n+2)
	xs = append(xs, h.Edges[0])
	ys = append(ys, 0)
	maxCount := 1
	for i, c := range h.Counts {
		xs = append(xs, h.Edges[i], h.Edges[i+1])
		ys = append(ys, float64(c), float64(c))
		if c > maxCount {
			maxCount = c
		}
	}
	xs = append(xs, h.Edges[n])
	ys = append(ys, 0)

	ch := chart.Chart{
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: h.Column, Range: &chart.ContinuousRange{Min: h.Edges[0], Max: h.Edges[n]}},
		YAxis:      chart.YAxis{Name: "count", Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.05}},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    h.Column,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: 1, StrokeColor: barStroke, FillColor: barFill},
		}},
	}
	if titled {
		ch.Title = fmt.Sprintf("Distribution of %s", h.Column)
	}
	return ch
}

// ScatterPNG plots paired points of two columns.
func ScatterPNG(s *eda.Scatter, xName, yName string, size Size) ([]byte, error) {
	if len(s.X) == 0 {
		return placeholderPNG(size, "no complete pairs")
	}
	ch := scatterChart(s, xName, yName, size)
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter: %w", err)
	}
	return buf.Bytes(), nil
}

func scatterChart(s *eda.Scatter, xName, yName string, size Size) chart.Chart {
	xmin, xmax := paddedRange(s.X)
	ymin, ymax := paddedRange(s.Y)
	return chart.Chart{
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName, Range: &chart.ContinuousRange{Min: xmin, Max: xmax}},
		YAxis:      chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: ymin, Max: ymax}},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    yName + " vs " + xName,
			XValues: s.X,
			YValues: s.Y,
			Style:   pointStyle(chart.ColorBlue),
		}},
	}
}

// paddedRange returns min and max widened by 5%, or by 0.5 when flat.
func paddedRange(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// PairplotPNG renders every grid cell on its own and tiles the results.
func PairplotPNG(g *eda.PlotGrid) ([]byte, error) {
	n := len(g.Columns)
	if n == 0 {
		return nil, fmt.Errorf("pairplot: %w", ErrNoChart)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, n*pairCell.Width, n*pairCell.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, row := range g.Cells {
		for j, cell := range row {
			var (
				data []byte
				err  error
			)
			if cell.Histogram != nil {
				var buf bytes.Buffer
				ch := histogramChart(*cell.Histogram, pairCell, false)
				err = ch.Render(chart.PNG, &buf)
				data = buf.Bytes()
			} else {
				data, err = ScatterPNG(cell.Scatter, cell.X, cell.Y, pairCell)
			}
			if err != nil {
				return nil, fmt.Errorf("pairplot cell %s/%s: %w", cell.Y, cell.X, err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("pairplot cell %s/%s: decode: %w", cell.Y, cell.X, err)
			}
			at := image.Pt(j*pairCell.Width, i*pairCell.Height)
			draw.Draw(canvas, img.Bounds().Add(at), img, img.Bounds().Min, draw.Over)
		}
	}
	return encodePNG(canvas)
}

func placeholderPNG(size Size, text string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawLabel(img, text, size.Width/2-len(text)*charWidth/2, size.Height/2, color.Gray{Y: 96})
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
