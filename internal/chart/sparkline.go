package chart

import (
	"math"
	"strings"

	"github.com/dyike/manbo/internal/models"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders prices as block characters scaled to the padded domain.
// Series longer than width are downsampled by taking the last point of each
// bucket, so the final close is always shown.
func Sparkline(points []models.ChartPoint, width int) (string, error) {
	domain, err := DomainOf(points)
	if err != nil {
		return "", err
	}
	if width <= 0 || width > len(points) {
		width = len(points)
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		idx := int(math.Ceil(float64(i+1)*float64(len(points))/float64(width))) - 1
		level := int(math.Round(domain.Normalize(points[idx].Price) * float64(len(sparkLevels)-1)))
		b.WriteRune(sparkLevels[level])
	}
	return b.String(), nil
}
