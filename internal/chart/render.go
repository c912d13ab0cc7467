package chart

import (
	"fmt"
	"image/color"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	lineTitle      = "Average temperature over the last 30 days"
	histogramTitle = "Average temperature distribution over the last 30 days"
	dateLabel      = "Date"
	tempLabel      = "Average temperature (°C)"
	freqLabel      = "Frequency"

	width  = 14 * vg.Inch
	height = 7 * vg.Inch
)

// Renderer draws charts into image files. The format follows the file
// extension (png, svg, pdf).
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// RenderLine draws one line per city with dates on the x axis.
func (r *Renderer) RenderLine(series []Series, path string) error {
	p := plot.New()
	p.Title.Text = lineTitle
	p.X.Label.Text = dateLabel
	p.Y.Label.Text = tempLabel
	p.Add(plotter.NewGrid())

	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			xys[j].X = float64(pt.Date.Unix())
			xys[j].Y = pt.AvgTempC
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line for %s: %w", s.City, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.City, line)
	}

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	r.logger.Info("line chart rendered", zap.String("path", path), zap.Int("series", len(series)))
	return nil
}

// RenderHistogram draws every city's bins as overlapping translucent bars.
func (r *Renderer) RenderHistogram(hists []CityHistogram, path string) error {
	p := plot.New()
	p.Title.Text = histogramTitle
	p.X.Label.Text = tempLabel
	p.Y.Label.Text = freqLabel
	p.Add(plotter.NewGrid())

	for i, h := range hists {
		if len(h.Bins) == 0 {
			continue
		}
		bins := make([]plotter.HistogramBin, len(h.Bins))
		for j, b := range h.Bins {
			bins[j] = plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)}
		}
		bars := &plotter.Histogram{
			Bins:      bins,
			Width:     h.Bins[0].Hi - h.Bins[0].Lo,
			FillColor: translucent(plotutil.Color(i)),
			LineStyle: plotter.DefaultLineStyle,
		}
		bars.LineStyle.Color = plotutil.Color(i)
		p.Add(bars)
		p.Legend.Add(h.City, bars)
	}

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	r.logger.Info("histogram rendered", zap.String("path", path), zap.Int("series", len(hists)))
	return nil
}

// translucent returns c at half opacity.
func translucent(c color.Color) color.Color {
	rr, gg, bb, _ := c.RGBA()
	return color.NRGBA{R: uint8(rr >> 8), G: uint8(gg >> 8), B: uint8(bb >> 8), A: 128}
}
