package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/manbo/internal/backend"
	"github.com/dyike/manbo/internal/models"
)

func TestFetchIsMemoised(t *testing.T) {
	api := newFakeBackend()
	api.results["job-1"] = completedResult("job-1")
	f := NewFetcher(api, nil)

	first, err := f.Fetch(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ActionHold, first.Action)
	assert.Equal(t, "## Trend\nflat", first.Report(models.ReportMarket))

	first.Reports[models.ReportMarket] = "mutated"

	second, err := f.Fetch(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "## Trend\nflat", second.Report(models.ReportMarket))
	assert.Equal(t, 1, api.resultCalls)

	f.Forget("job-1")
	_, err = f.Fetch(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.resultCalls)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		status  int
	}{
		{name: "not ready", err: backend.ErrResultNotReady, message: "analysis result is not ready yet"},
		{name: "failed job", err: &backend.APIError{StatusCode: 500, Message: "LLM quota exhausted"}, message: "LLM quota exhausted", status: 500},
		{name: "unknown job", err: &backend.APIError{StatusCode: 404, Message: "Analysis not found"}, message: "Analysis not found", status: 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeBackend()
			api.resultErr = tt.err

			_, err := NewFetcher(api, nil).Fetch(context.Background(), "job-1")

			var ferr *ResultFetchError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.message, ferr.Error())
			assert.Equal(t, tt.status, ferr.StatusCode)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFetchWithoutPayload(t *testing.T) {
	api := newFakeBackend()
	api.results["job-1"] = &backend.ResultResponse{ID: "job-1", Status: "completed"}

	_, err := NewFetcher(api, nil).Fetch(context.Background(), "job-1")
	var ferr *ResultFetchError
	assert.ErrorAs(t, err, &ferr)
}
