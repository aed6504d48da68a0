package display

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/manbo/internal/dataflows"
	"github.com/dyike/manbo/internal/jobs"
	"github.com/dyike/manbo/internal/models"
)

func ptr[T any](v T) *T { return &v }

func sampleResult() *models.AnalysisResult {
	completed := time.Date(2024, 1, 15, 10, 42, 0, 0, time.UTC)
	return &models.AnalysisResult{
		JobID:       "job-1",
		Symbol:      "AAPL",
		Market:      models.MarketUS,
		CompletedAt: &completed,
		Success:     true,
		Action:      models.ActionBuy,
		TargetPrice: ptr(decimal.RequireFromString("195.5")),
		Confidence:  ptr(0.72),
		Reasoning:   "**Strong** momentum",
		Reports: map[models.ReportKind]string{
			models.ReportMarket:        "## Trend\nPrice is **rising**.\n- RSI 61\n1. Breakout",
			models.ReportFinalDecision: "FINAL TRANSACTION PROPOSAL: **BUY**",
			models.ReportNews:          "   ",
		},
	}
}

func samplePoints() []models.ChartPoint {
	return []models.ChartPoint{
		{Date: "2024-01-10", Price: 100},
		{Date: "2024-01-11", Price: 105},
		{Date: "2024-01-12", Price: 110},
	}
}

func TestRenderReport(t *testing.T) {
	text := "# Overview\n\nIntro with **bold** text\n- item one\n* item two\n2. second\n\n\n\n---\nend"
	out := RenderReport(text, 80)

	assert.Contains(t, out, "Overview")
	assert.Contains(t, out, "• item one")
	assert.Contains(t, out, "• item two")
	assert.Contains(t, out, "2. second")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "---")
	assert.NotContains(t, out, "\n\n\n")
	assert.True(t, strings.HasSuffix(out, "end"))
}

func TestWrapText(t *testing.T) {
	words := strings.Fields("alpha beta gamma delta epsilon")
	lines := wrapText(words, "  • ", "    ", 16)

	require.Len(t, lines, 3)
	assert.Equal(t, "  • alpha beta", lines[0])
	assert.Equal(t, "    gamma delta", lines[1])
	assert.Equal(t, "    epsilon", lines[2])
	for _, l := range lines {
		assert.LessOrEqual(t, visibleLen(l), 16)
	}
	assert.Nil(t, wrapText(nil, "", "", 10))
}

func TestVisibleLenSkipsEscapes(t *testing.T) {
	assert.Equal(t, 4, visibleLen("\x1b[1mbold\x1b[0m"))
}

func TestChartSummary(t *testing.T) {
	out := ChartSummary(samplePoints(), 40)
	assert.Contains(t, out, "2024-01-10 → 2024-01-12 (3 days)")
	assert.Contains(t, out, "last close 110.00")
	assert.Contains(t, out, "+10.00%")
}

func TestChartSummaryEmptyState(t *testing.T) {
	assert.Contains(t, ChartSummary(nil, 40), "No chart available")
}

func TestDecisionSummary(t *testing.T) {
	out := DecisionSummary(sampleResult())
	assert.Contains(t, out, "🟢")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "195.50")
	assert.Contains(t, out, "72%")
	assert.Contains(t, out, "Risk score:    n/a")
	assert.Contains(t, out, "Strong momentum")
}

func TestDecisionSummaryUnsuccessful(t *testing.T) {
	out := DecisionSummary(&models.AnalysisResult{Success: false, Error: "no data for symbol"})
	assert.Contains(t, out, "no data for symbol")
	assert.Contains(t, out, "PENDING")
}

func TestDisplayAnalysisResults(t *testing.T) {
	var buf bytes.Buffer
	NewResultsDisplay(&buf).DisplayAnalysisResults(sampleResult(), samplePoints())
	out := buf.String()

	assert.Contains(t, out, "Analysis results for AAPL")
	assert.Contains(t, out, "MARKET ANALYSIS")
	assert.Contains(t, out, "FINAL TRADE DECISION")
	assert.NotContains(t, out, "NEWS ANALYSIS")
	assert.Contains(t, out, "Job: job-1")
	assert.Less(t, strings.Index(out, "MARKET ANALYSIS"), strings.Index(out, "FINAL TRADE DECISION"))
}

func TestStatusLine(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 31, 5, 0, time.UTC)
	job := &models.AnalysisJob{
		ID:        "job-1",
		Symbol:    "AAPL",
		Status:    models.StatusRunning,
		CreatedAt: now.Add(-65 * time.Second),
	}

	tests := []struct {
		name string
		snap jobs.Snapshot
		want string
	}{
		{name: "empty", snap: jobs.Snapshot{}, want: "No analysis started"},
		{name: "submitting", snap: jobs.Snapshot{Generation: 1}, want: "Submitting"},
		{name: "running", snap: jobs.Snapshot{Generation: 1, State: jobs.StatePolling, Job: job}, want: "AAPL · running · 1m5s"},
		{name: "fetching", snap: jobs.Snapshot{Generation: 1, State: jobs.StateCompleted, Job: job}, want: "fetching result"},
		{name: "done", snap: jobs.Snapshot{Generation: 1, State: jobs.StateCompleted, Job: job, Result: &models.AnalysisResult{}, Done: true}, want: "Analysis complete"},
		{name: "job failure", snap: jobs.Snapshot{Generation: 1, State: jobs.StateFailed, Job: job, Err: &jobs.JobFailure{Reason: "quota"}, Done: true}, want: "Analysis failed: quota"},
		{name: "cancelled", snap: jobs.Snapshot{Generation: 1, State: jobs.StateCancelled, Err: jobs.ErrCancelled, Done: true}, want: "cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, StatusLine(tt.snap, now), tt.want)
		})
	}
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Lost contact with the backend: reset",
		failureMessage(&jobs.PollingError{JobID: "x", Err: errors.New("reset")}))
	assert.Equal(t, "Submission failed: symbol is required",
		failureMessage(&jobs.SubmissionError{StatusCode: 400, Message: "symbol is required"}))
	assert.Equal(t, "plain", failureMessage(errors.New("plain")))
}

func TestRenderJob(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 1, 0, time.UTC)
	job := &models.AnalysisJob{
		ID:           "job-1",
		Symbol:       "AAPL",
		Market:       models.MarketUS,
		Status:       models.StatusFailed,
		CreatedAt:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		StartedAt:    &started,
		ErrorMessage: "quota",
	}
	out := RenderJob(job, started.Add(time.Minute))
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "2024-01-15 10:30:01")
	assert.Contains(t, out, "Error:")
	assert.NotContains(t, out, "Completed:")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	folder, files, err := Export(dir, sampleResult(), samplePoints())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "AAPL_20240115_104200"), folder)
	assert.Len(t, files, 4)

	summary, err := os.ReadFile(filepath.Join(folder, "summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "**Action:** BUY")
	assert.Contains(t, string(summary), "[Market Analysis](market_report.md): Trend")

	market, err := os.ReadFile(filepath.Join(folder, "market_report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(market), "Price is **rising**.")

	png, err := os.ReadFile(filepath.Join(folder, ChartFileName))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = os.Stat(filepath.Join(folder, "news_report.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportWithoutChart(t *testing.T) {
	_, files, err := Export(t.TempDir(), sampleResult(), samplePoints()[:1])
	require.NoError(t, err)
	for _, f := range files {
		assert.NotEqual(t, ChartFileName, filepath.Base(f))
	}
}

func TestExportWritesCandleCSV(t *testing.T) {
	res := sampleResult()
	res.MarketData = []models.Candle{
		{Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("185.92")},
	}
	folder, _, err := Export(t.TempDir(), res, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(folder, dataflows.CSVFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAPL,2024-01-12,,,,185.92,")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "BRK_B_x", sanitizeFilename("BRK/B x"))
}
