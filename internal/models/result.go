package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the trading decision returned by the backend.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalises free-form action text; the backend sometimes returns
// localised labels or full sentences.
func ParseAction(s string) Action {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "BUY"), strings.Contains(v, "买"):
		return ActionBuy
	case strings.Contains(v, "SELL"), strings.Contains(v, "卖"):
		return ActionSell
	case strings.Contains(v, "HOLD"), strings.Contains(v, "持"):
		return ActionHold
	default:
		return Action(v)
	}
}

// AnalysisResult is the immutable outcome of a completed job.
type AnalysisResult struct {
	JobID       string
	Symbol      string
	Market      Market
	CompletedAt *time.Time

	Success     bool
	Action      Action
	TargetPrice *decimal.Decimal
	Confidence  *float64
	RiskScore   *float64
	Reasoning   string
	Reports     map[ReportKind]string
	MarketData  []Candle
	Error       string
}

// Report returns the text for kind, or "" when the backend did not produce it.
func (r *AnalysisResult) Report(kind ReportKind) string {
	if r == nil || r.Reports == nil {
		return ""
	}
	return r.Reports[kind]
}

// AvailableReports lists the non-empty reports in presentation order.
func (r *AnalysisResult) AvailableReports() []ReportKind {
	var out []ReportKind
	for _, kind := range ReportKinds {
		if strings.TrimSpace(r.Report(kind)) != "" {
			out = append(out, kind)
		}
	}
	return out
}

// Clone returns a deep copy so callers cannot mutate a shared snapshot.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	cp := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	if r.TargetPrice != nil {
		p := *r.TargetPrice
		cp.TargetPrice = &p
	}
	if r.Confidence != nil {
		c := *r.Confidence
		cp.Confidence = &c
	}
	if r.RiskScore != nil {
		s := *r.RiskScore
		cp.RiskScore = &s
	}
	if r.Reports != nil {
		cp.Reports = make(map[ReportKind]string, len(r.Reports))
		for k, v := range r.Reports {
			cp.Reports[k] = v
		}
	}
	if r.MarketData != nil {
		cp.MarketData = make([]Candle, len(r.MarketData))
		copy(cp.MarketData, r.MarketData)
	}
	return &cp
}

// ClampUnit limits v to [0,1]. NaN becomes 0.
func ClampUnit(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Candle is one trading day of OHLCV data. Open/High/Low/Volume are optional.
type Candle struct {
	Date   time.Time           `json:"date"`
	Open   decimal.NullDecimal `json:"open"`
	High   decimal.NullDecimal `json:"high"`
	Low    decimal.NullDecimal `json:"low"`
	Close  decimal.Decimal     `json:"close"`
	Volume *int64              `json:"volume,omitempty"`
}

// ChartPoint is the projection of a candle used for plotting.
type ChartPoint struct {
	Date   string   `json:"date"`
	Price  float64  `json:"price"`
	Volume *float64 `json:"volume,omitempty"`
}
