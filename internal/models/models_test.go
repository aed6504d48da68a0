package models

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarket(t *testing.T) {
	tests := []struct {
		in   string
		want Market
	}{
		{"美股", MarketUS},
		{"us", MarketUS},
		{" HK ", MarketHK},
		{"A股", MarketCN},
		{"cn", MarketCN},
	}
	for _, tt := range tests {
		got, err := ParseMarket(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMarket("mars")
	assert.Error(t, err)
}

func TestAnalystTogglesAlwaysIncludeCore(t *testing.T) {
	assert.Equal(t, []Analyst{AnalystMarket, AnalystFundamentals}, AnalystToggles{}.Analysts())
	assert.Equal(t,
		[]Analyst{AnalystMarket, AnalystFundamentals, AnalystNews, AnalystSocial},
		AnalystToggles{News: true, Social: true}.Analysts())
}

func TestJobApplyIsMonotonic(t *testing.T) {
	job := &AnalysisJob{ID: "a", Status: StatusQueued}

	started := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.True(t, job.Apply(StatusUpdate{Status: StatusRunning, StartedAt: &started}))
	assert.Equal(t, StatusRunning, job.Status)

	assert.False(t, job.Apply(StatusUpdate{Status: StatusQueued}))
	assert.Equal(t, StatusRunning, job.Status)

	assert.True(t, job.Apply(StatusUpdate{Status: StatusFailed, Error: "boom"}))
	assert.False(t, job.Apply(StatusUpdate{Status: StatusCompleted}))
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMessage)
	assert.Equal(t, started, *job.StartedAt)
}

func TestParseJobStatus(t *testing.T) {
	st, err := ParseJobStatus("Running")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)

	_, err = ParseJobStatus("paused")
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-15T10:30:00.123456")
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 30, ts.Minute())

	ts, err = ParseTimestamp("2024-01-15T10:30:00+08:00")
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 8*3600, offset)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestReportKindKeysRoundTrip(t *testing.T) {
	for _, kind := range ReportKinds {
		got, ok := ReportKindFromKey(kind.Key())
		require.True(t, ok, kind.Key())
		assert.Equal(t, kind, got)
		assert.NotEmpty(t, kind.Title())
	}
	_, ok := ReportKindFromKey("horoscope")
	assert.False(t, ok)
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionBuy, ParseAction("buy"))
	assert.Equal(t, ActionSell, ParseAction("卖出"))
	assert.Equal(t, ActionHold, ParseAction("持有"))
	assert.Equal(t, Action(""), ParseAction("  "))
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-0.2))
	assert.Equal(t, 1.0, ClampUnit(1.7))
	assert.Equal(t, 0.4, ClampUnit(0.4))
	assert.Equal(t, 0.0, ClampUnit(math.NaN()))
}

func TestResultCloneIsDeep(t *testing.T) {
	price := decimal.NewFromFloat(180.5)
	conf := 0.8
	orig := &AnalysisResult{
		Success:     true,
		TargetPrice: &price,
		Confidence:  &conf,
		Reports:     map[ReportKind]string{ReportMarket: "x"},
		MarketData:  []Candle{{Close: decimal.NewFromInt(1)}},
	}

	cp := orig.Clone()
	cp.Reports[ReportMarket] = "changed"
	*cp.Confidence = 0.1
	cp.MarketData[0].Close = decimal.NewFromInt(2)

	assert.Equal(t, "x", orig.Reports[ReportMarket])
	assert.Equal(t, 0.8, *orig.Confidence)
	assert.True(t, orig.MarketData[0].Close.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, (*AnalysisResult)(nil).Clone())
}

func TestAvailableReports(t *testing.T) {
	r := &AnalysisResult{Reports: map[ReportKind]string{
		ReportFinalDecision: "sell",
		ReportMarket:        "up",
		ReportNews:          "   ",
	}}
	assert.Equal(t, []ReportKind{ReportMarket, ReportFinalDecision}, r.AvailableReports())
}

func TestDebateText(t *testing.T) {
	assert.Equal(t, "hold it", (&InvestDebateState{JudgeDecision: " hold it ", History: "h"}).Text())
	assert.Equal(t, "h", (&InvestDebateState{History: "h"}).Text())
	assert.Equal(t, "### Bull\nup\n\n### Bear\ndown",
		(&InvestDebateState{BullHistory: "up", BearHistory: "down"}).Text())
	assert.Equal(t, "### Safe\ncareful", (&RiskDebateState{SafeHistory: "careful"}).Text())
	assert.Equal(t, "", (*RiskDebateState)(nil).Text())
}
