package dataflows

import (
	"sort"
	"time"

	"github.com/longportapp/openapi-go/quote"
	"github.com/piquette/finance-go"
	"github.com/shopspring/decimal"

	"github.com/dyike/manbo/internal/models"
)

// ToChartPoints projects candles onto the plotted {date, close, volume} shape.
// Dates are truncated to the calendar day in the candle's own location.
func ToChartPoints(candles []models.Candle) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(candles))
	for _, c := range candles {
		price, _ := c.Close.Float64()
		p := models.ChartPoint{
			Date:  c.Date.Format(time.DateOnly),
			Price: price,
		}
		if c.Volume != nil {
			v := float64(*c.Volume)
			p.Volume = &v
		}
		points = append(points, p)
	}
	return points
}

// CandlesFromFinnhub converts the parallel arrays. A non-"ok" status or empty
// arrays give an empty slice. Arrays of unequal length are cut to the shortest
// of close and time; open/high/low/volume are filled only where present.
func CandlesFromFinnhub(c FinnhubCandles) []models.Candle {
	if c.NoData() {
		return []models.Candle{}
	}
	n := min(len(c.Close), len(c.Time))
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		candle := models.Candle{
			Date:  unixDay(c.Time[i]),
			Close: decimal.NewFromFloat(c.Close[i]),
			Open:  nullAt(c.Open, i),
			High:  nullAt(c.High, i),
			Low:   nullAt(c.Low, i),
		}
		if i < len(c.Volume) {
			v := int64(c.Volume[i])
			candle.Volume = &v
		}
		out = append(out, candle)
	}
	return sortCandles(out)
}

func nullAt(values []float64, i int) decimal.NullDecimal {
	if i >= len(values) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(values[i]))
}

// CandlesFromRecords converts object-per-day records. Records without a date
// are skipped.
func CandlesFromRecords(records []DailyRecord) []models.Candle {
	out := make([]models.Candle, 0, len(records))
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		c := models.Candle{
			Date:  r.Date.Time,
			Close: r.Close.Decimal,
			Open:  flexNull(r.Open),
			High:  flexNull(r.High),
			Low:   flexNull(r.Low),
		}
		if r.Volume != nil {
			v := r.Volume.IntPart()
			c.Volume = &v
		}
		out = append(out, c)
	}
	return sortCandles(out)
}

func flexNull(f *FlexDecimal) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(f.Decimal)
}

// CandleFromYahooBar converts a finance-go chart bar. Timestamps are unix seconds.
func CandleFromYahooBar(bar *finance.ChartBar) models.Candle {
	vol := int64(bar.Volume)
	return models.Candle{
		Date:   unixDay(int64(bar.Timestamp)),
		Open:   decimal.NewNullDecimal(bar.Open),
		High:   decimal.NewNullDecimal(bar.High),
		Low:    decimal.NewNullDecimal(bar.Low),
		Close:  bar.Close,
		Volume: &vol,
	}
}

// CandleFromLongport converts a Longport candlestick. Sticks without a close
// price report ok=false.
func CandleFromLongport(stick *quote.Candlestick) (models.Candle, bool) {
	if stick == nil || stick.Close == nil {
		return models.Candle{}, false
	}
	vol := stick.Volume
	c := models.Candle{
		Date:   unixDay(stick.Timestamp),
		Close:  *stick.Close,
		Volume: &vol,
	}
	if stick.Open != nil {
		c.Open = decimal.NewNullDecimal(*stick.Open)
	}
	if stick.High != nil {
		c.High = decimal.NewNullDecimal(*stick.High)
	}
	if stick.Low != nil {
		c.Low = decimal.NewNullDecimal(*stick.Low)
	}
	return c, true
}

// FilterRange keeps candles whose day falls within [from, to].
func FilterRange(candles []models.Candle, from, to time.Time) []models.Candle {
	lo := from.Format(time.DateOnly)
	hi := to.Format(time.DateOnly)
	out := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		d := c.Date.Format(time.DateOnly)
		if d >= lo && d <= hi {
			out = append(out, c)
		}
	}
	return out
}

func sortCandles(candles []models.Candle) []models.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})
	return candles
}
