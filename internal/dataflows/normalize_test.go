package dataflows

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/piquette/finance-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/manbo/internal/models"
)

func TestCandlesFromFinnhubNoData(t *testing.T) {
	got := CandlesFromFinnhub(FinnhubCandles{Status: "no_data"})
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = CandlesFromFinnhub(FinnhubCandles{Status: "ok"})
	require.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, ToChartPoints(got))
}

func TestCandlesFromFinnhub(t *testing.T) {
	raw := `{"c":[101.5,102.25,99],"h":[102,103,100],"l":[100,101,98],"o":[100.5,101.5,99.5],
		"t":[1705276800,1705363200,1705449600],"v":[1000,2000,3000],"s":"ok"}`
	var fc FinnhubCandles
	require.NoError(t, json.Unmarshal([]byte(raw), &fc))

	points := ToChartPoints(CandlesFromFinnhub(fc))
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-15", points[0].Date)
	assert.Equal(t, 101.5, points[0].Price)
	require.NotNil(t, points[2].Volume)
	assert.Equal(t, 3000.0, *points[2].Volume)
}

func TestCandlesFromFinnhubTruncatesMismatchedArrays(t *testing.T) {
	fc := FinnhubCandles{
		Status: "ok",
		Close:  []float64{1, 2, 3},
		Time:   []int64{1705276800, 1705363200},
		Volume: []float64{10},
	}
	candles := CandlesFromFinnhub(fc)
	require.Len(t, candles, 2)
	assert.NotNil(t, candles[0].Volume)
	assert.Nil(t, candles[1].Volume)
	assert.False(t, candles[1].Open.Valid)
}

func TestFinnhubDatesTruncateNotRound(t *testing.T) {
	// 2024-01-15T23:59:59Z
	fc := FinnhubCandles{Status: "ok", Close: []float64{5}, Time: []int64{1705363199}}
	points := ToChartPoints(CandlesFromFinnhub(fc))
	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-15", points[0].Date)
}

func TestDailyRecordsDecode(t *testing.T) {
	raw := `[
		{"date":"2024-01-16T15:30:00-05:00","open":"185.1","high":186,"low":184,"close":185.5,"volume":1200000},
		{"date":"2024-01-15","close":"184.25"},
		{"date":1705449600,"close":187},
		{"date":"1705536000","close":188, "volume":null},
		{"close":1}
	]`
	var records []DailyRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))

	candles := CandlesFromRecords(records)
	require.Len(t, candles, 4)

	points := ToChartPoints(candles)
	assert.Equal(t, "2024-01-15", points[0].Date)
	assert.Equal(t, 184.25, points[0].Price)
	assert.Nil(t, points[0].Volume)

	// evening timestamp keeps its own calendar day
	assert.Equal(t, "2024-01-16", points[1].Date)
	require.NotNil(t, points[1].Volume)
	assert.Equal(t, 1200000.0, *points[1].Volume)
	assert.True(t, candles[1].Open.Valid)
	assert.True(t, candles[1].Open.Decimal.Equal(decimal.RequireFromString("185.1")))

	assert.Equal(t, "2024-01-17", points[2].Date)
	assert.Equal(t, "2024-01-18", points[3].Date)
}

func TestDailyRecordRejectsGarbageDate(t *testing.T) {
	var r DailyRecord
	assert.Error(t, json.Unmarshal([]byte(`{"date":"soon","close":1}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"2024-01-01","close":"abc"}`), &r))
}

func TestCandleFromYahooBar(t *testing.T) {
	bar := &finance.ChartBar{
		Open:      decimal.NewFromFloat(10),
		High:      decimal.NewFromFloat(11),
		Low:       decimal.NewFromFloat(9),
		Close:     decimal.NewFromFloat(10.5),
		Volume:    500,
		Timestamp: 1705276800,
	}
	c := CandleFromYahooBar(bar)
	assert.Equal(t, "2024-01-15", c.Date.Format(time.DateOnly))
	assert.True(t, c.Close.Equal(decimal.NewFromFloat(10.5)))
	require.NotNil(t, c.Volume)
	assert.EqualValues(t, 500, *c.Volume)
}

func TestCandleFromLongport(t *testing.T) {
	_, ok := CandleFromLongport(nil)
	assert.False(t, ok)
}

func TestFilterRange(t *testing.T) {
	day := func(s string) time.Time {
		d, _ := time.Parse(time.DateOnly, s)
		return d
	}
	candles := []models.Candle{
		{Date: day("2024-01-10")},
		{Date: day("2024-01-15")},
		{Date: day("2024-01-20")},
	}
	got := FilterRange(candles, day("2024-01-11"), day("2024-01-20"))
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-15", got[0].Date.Format(time.DateOnly))
}
