// Package chart computes axis ranges for price series and renders them as
// PNG images or terminal sparklines.
package chart

import (
	"errors"
	"math"

	"github.com/dyike/manbo/internal/models"
)

// ErrEmptySeries is returned for an empty price series. Callers show an
// empty state instead of a chart.
var ErrEmptySeries = errors.New("chart: empty price series")

const (
	rangePadding = 0.10
	pricePadding = 0.05
)

// Domain is the padded Y-axis range of a price series.
type Domain struct {
	Min float64
	Max float64
}

// Span is Max-Min.
func (d Domain) Span() float64 { return d.Max - d.Min }

// DomainOf pads the price range by the larger of 10% of the range and 5% of
// the lowest price. The lower bound never drops below zero.
func DomainOf(points []models.ChartPoint) (Domain, error) {
	if len(points) == 0 {
		return Domain{}, ErrEmptySeries
	}

	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minP = math.Min(minP, p.Price)
		maxP = math.Max(maxP, p.Price)
	}

	padding := math.Max((maxP-minP)*rangePadding, minP*pricePadding)
	return Domain{
		Min: math.Max(0, minP-padding),
		Max: maxP + padding,
	}, nil
}

// Normalize maps v into [0,1] within d. A zero-width domain maps everything to 0.5.
func (d Domain) Normalize(v float64) float64 {
	span := d.Span()
	if span <= 0 {
		return 0.5
	}
	return models.ClampUnit((v - d.Min) / span)
}
