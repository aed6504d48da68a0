package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/manbo/internal/backend"
	"github.com/dyike/manbo/internal/models"
)

func TestSubmitEmptySymbolMakesNoRequest(t *testing.T) {
	api := newFakeBackend()
	s := NewSubmitter(api, nil)

	_, err := s.Submit(context.Background(), SubmitRequest{Symbol: "   ", Market: models.MarketUS})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "symbol is required", verr.Field("symbol"))
	assert.Zero(t, api.createCount())
}

func TestSubmitRejectsUnknownMarketAndDepth(t *testing.T) {
	api := newFakeBackend()
	s := NewSubmitter(api, nil)

	_, err := s.Submit(context.Background(), SubmitRequest{Symbol: "AAPL", Market: "NYSE", ResearchDepth: 9})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field("market"), "美股")
	assert.Equal(t, "research_depth must be between 1 and 5", verr.Field("research_depth"))
	assert.Len(t, verr.Fields, 2)
	assert.Zero(t, api.createCount())
}

func TestSubmitRejectsBadDate(t *testing.T) {
	api := newFakeBackend()
	_, err := NewSubmitter(api, nil).Submit(context.Background(), SubmitRequest{
		Symbol: "AAPL", Market: models.MarketUS, AnalysisDate: "15/01/2024",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Field("analysis_date"))
}

func TestSubmitAppliesDefaults(t *testing.T) {
	api := newFakeBackend()
	s := NewSubmitter(api, nil)

	handle, err := s.Submit(context.Background(), SubmitRequest{
		Symbol: " aapl ",
		Market: models.MarketUS,
		Social: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", handle.ID)
	assert.Equal(t, models.StatusQueued, handle.Job.Status)
	assert.Equal(t, "AAPL", handle.Job.Symbol)

	require.Equal(t, 1, api.createCount())
	sent := api.creates[0]
	assert.Equal(t, "AAPL", sent.Symbol)
	assert.Equal(t, "美股", sent.Market)
	assert.Equal(t, 3, sent.ResearchDepth)
	assert.Equal(t, []string{"market", "fundamentals", "social"}, sent.Analysts)
	assert.Equal(t, time.Now().Format(time.DateOnly), sent.AnalysisDate)
	require.NotNil(t, sent.IncludeRiskAssessment)
	assert.True(t, *sent.IncludeRiskAssessment)
}

func TestSubmitKeepsExplicitValues(t *testing.T) {
	api := newFakeBackend()
	noRisk := false
	_, err := NewSubmitter(api, nil).Submit(context.Background(), SubmitRequest{
		Symbol:                "0700",
		Market:                models.MarketHK,
		ResearchDepth:         5,
		LLMProvider:           "google",
		AnalysisDate:          "2024-01-15",
		News:                  true,
		IncludeRiskAssessment: &noRisk,
	})
	require.NoError(t, err)

	sent := api.creates[0]
	assert.Equal(t, 5, sent.ResearchDepth)
	assert.Equal(t, "google", sent.LLMProvider)
	assert.Equal(t, "2024-01-15", sent.AnalysisDate)
	assert.Equal(t, []string{"market", "fundamentals", "news"}, sent.Analysts)
	assert.False(t, *sent.IncludeRiskAssessment)
}

func TestSubmitCarriesBackendMessage(t *testing.T) {
	api := newFakeBackend()
	api.createErr = &backend.APIError{StatusCode: 400, Endpoint: "POST /analysis", Message: "market is required"}

	_, err := NewSubmitter(api, nil).Submit(context.Background(), SubmitRequest{Symbol: "AAPL", Market: models.MarketUS})

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Equal(t, "market is required", serr.Error())
	_, isAPI := backend.AsAPIError(err)
	assert.True(t, isAPI)
	assert.Equal(t, 1, api.createCount())
}

func TestSubmitFallbackMessage(t *testing.T) {
	api := newFakeBackend()
	api.createErr = errors.New("connection refused")

	_, err := NewSubmitter(api, nil).Submit(context.Background(), SubmitRequest{Symbol: "AAPL", Market: models.MarketUS})

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "failed to submit analysis", serr.Message)
	assert.Equal(t, "failed to submit analysis: connection refused", serr.Error())
	assert.Equal(t, 1, api.createCount())
}

func TestSubmitFallbackForEmptyBackendMessage(t *testing.T) {
	api := newFakeBackend()
	api.createErr = &backend.APIError{StatusCode: 502, Endpoint: "POST /analysis"}

	_, err := NewSubmitter(api, nil).Submit(context.Background(), SubmitRequest{Symbol: "AAPL", Market: models.MarketUS})
	assert.EqualError(t, err, "failed to submit analysis")
}
