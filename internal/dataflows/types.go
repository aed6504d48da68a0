package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/models"
)

// Config is an alias for the main application config
type Config = config.Config

// CandleProvider fetches daily candles for a symbol over [from, to].
// An empty slice with a nil error means the provider has no data.
type CandleProvider interface {
	Name() string
	DailyCandles(ctx context.Context, symbol string, market models.Market, from, to time.Time) ([]models.Candle, error)
}

// FinnhubCandles is the parallel-array payload of /stock/candle.
type FinnhubCandles struct {
	Close  []float64 `json:"c"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Open   []float64 `json:"o"`
	Time   []int64   `json:"t"`
	Volume []float64 `json:"v"`
	Status string    `json:"s"`
}

// NoData reports the provider-level "no data" condition.
func (c FinnhubCandles) NoData() bool {
	return c.Status != "ok" || len(c.Close) == 0 || len(c.Time) == 0
}

// DailyRecord is one object-per-day candle as embedded in analysis results.
// Numbers may arrive as JSON numbers or strings; dates as strings or unix seconds.
type DailyRecord struct {
	Date   FlexTime     `json:"date"`
	Open   *FlexDecimal `json:"open,omitempty"`
	High   *FlexDecimal `json:"high,omitempty"`
	Low    *FlexDecimal `json:"low,omitempty"`
	Close  FlexDecimal  `json:"close"`
	Volume *FlexDecimal `json:"volume,omitempty"`
}

// FlexDecimal accepts a number or a numeric string.
type FlexDecimal struct {
	decimal.Decimal
}

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" || raw == "N/A" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into decimal", string(data))
	}
	f.Decimal = d
	return nil
}

// FlexTime accepts an ISO date/datetime string or unix seconds (number or string).
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("cannot unmarshal %s into date", string(data))
		}
		f.Time = unixDay(n)
		return nil
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && len(strings.TrimSpace(s)) > 8 {
		f.Time = unixDay(n)
		return nil
	}
	t, err := ParseDateString(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// unixDay interprets seconds, or milliseconds when the value is too large for seconds.
func unixDay(n int64) time.Time {
	if n > 1e11 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
