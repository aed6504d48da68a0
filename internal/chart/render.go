package chart

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/dyike/manbo/internal/models"
)

// RenderOptions controls PNG output.
type RenderOptions struct {
	Title  string
	Width  int
	Height int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = 900
	}
	if o.Height <= 0 {
		o.Height = 400
	}
	return o
}

// RenderPNG draws the close-price line with the padded Y axis from DomainOf.
// At least two dated points are required.
func RenderPNG(points []models.ChartPoint, opts RenderOptions) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	domain, err := DomainOf(points)
	if err != nil {
		return nil, err
	}
	if domain.Span() <= 0 {
		// go-chart rejects a zero-height range.
		domain.Max = domain.Min + 1
	}

	xValues := make([]time.Time, 0, len(points))
	yValues := make([]float64, 0, len(points))
	for _, p := range points {
		d, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return nil, fmt.Errorf("chart point date %q: %w", p.Date, err)
		}
		xValues = append(xValues, d)
		yValues = append(yValues, p.Price)
	}

	opts = opts.withDefaults()
	priceSeries := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("3b82f6"),
			FillColor:   drawing.ColorFromHex("3b82f6").WithAlpha(40),
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("01-02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: domain.Min, Max: domain.Max},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{priceSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePNG renders the chart and writes it to path.
func WritePNG(path string, points []models.ChartPoint, opts RenderOptions) error {
	data, err := RenderPNG(points, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write chart %s: %w", path, err)
	}
	return nil
}
