package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/manbo/internal/backend"
	"github.com/dyike/manbo/internal/models"
)

func waitSession(t *testing.T, s *Session) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func validRequest() SubmitRequest {
	return SubmitRequest{Symbol: "AAPL", Market: models.MarketUS}
}

func TestSessionRunsJobToResult(t *testing.T) {
	api := newFakeBackend()
	api.setStatuses("job-1", reply("job-1", "running", ""), reply("job-1", "completed", ""))
	api.results["job-1"] = completedResult("job-1")

	var mu sync.Mutex
	var states []State
	s := NewSession(api,
		WithPollInterval(5*time.Millisecond),
		WithOnChange(func(snap Snapshot) {
			mu.Lock()
			states = append(states, snap.State)
			mu.Unlock()
		}),
	)

	handle, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-1", handle.ID)

	snap := waitSession(t, s)
	assert.True(t, snap.Done)
	assert.NoError(t, snap.Err)
	assert.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Job)
	assert.Equal(t, models.StatusCompleted, snap.Job.Status)
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.ActionHold, snap.Result.Action)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StateIdle, states[0])
	assert.Contains(t, states, StatePolling)
}

func TestSessionValidationKeepsCurrentJob(t *testing.T) {
	api := newFakeBackend()
	s := NewSession(api, WithPollInterval(time.Hour))

	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)
	before := s.Snapshot()

	_, err = s.Start(context.Background(), SubmitRequest{Symbol: "", Market: models.MarketUS})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	after := s.Snapshot()
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, "job-1", after.Job.ID)
	assert.False(t, after.Done)
	assert.Equal(t, 1, api.createCount())
	s.Cancel()
}

func TestSessionNewJobDiscardsStaleCheck(t *testing.T) {
	api := newFakeBackend()
	gate := make(chan struct{})
	api.setStatuses("job-1", statusReply{resp: statusOf("job-1", "failed", "stale failure"), gate: gate})
	api.setStatuses("job-2", reply("job-2", "completed", ""))
	api.results["job-2"] = completedResult("job-2")

	s := NewSession(api, WithPollInterval(5*time.Millisecond))

	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "job-1", <-api.started)

	_, err = s.Start(context.Background(), SubmitRequest{Symbol: "MSFT", Market: models.MarketUS})
	require.NoError(t, err)
	snap := waitSession(t, s)

	close(gate)
	require.Eventually(t, func() bool { return api.calls("job-1") == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	final := s.Snapshot()
	assert.Equal(t, snap.Generation, final.Generation)
	assert.Equal(t, "job-2", final.Job.ID)
	assert.NoError(t, final.Err)
	assert.Equal(t, StateCompleted, final.State)
	assert.Empty(t, final.Job.ErrorMessage)
}

func TestSessionCancel(t *testing.T) {
	api := newFakeBackend()
	s := NewSession(api, WithPollInterval(time.Hour))

	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)
	s.Cancel()

	snap := waitSession(t, s)
	assert.Equal(t, StateCancelled, snap.State)
	assert.ErrorIs(t, snap.Err, ErrCancelled)

	s.Cancel()
	assert.Equal(t, StateCancelled, s.Snapshot().State)
}

func TestSessionSubmissionError(t *testing.T) {
	api := newFakeBackend()
	api.createErr = &backend.APIError{StatusCode: 400, Message: "symbol is required"}
	s := NewSession(api)

	_, err := s.Start(context.Background(), validRequest())
	require.Error(t, err)

	snap := waitSession(t, s)
	assert.True(t, snap.Done)
	assert.Nil(t, snap.Job)
	var serr *SubmissionError
	require.ErrorAs(t, snap.Err, &serr)
	assert.Equal(t, "symbol is required", serr.Message)
}

func TestSessionJobFailure(t *testing.T) {
	api := newFakeBackend()
	api.setStatuses("job-1", reply("job-1", "failed", ""))
	s := NewSession(api)

	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)

	snap := waitSession(t, s)
	assert.Equal(t, StateFailed, snap.State)
	assert.EqualError(t, snap.Err, DefaultFailureReason)
	assert.Equal(t, models.StatusFailed, snap.Job.Status)
	assert.Equal(t, DefaultFailureReason, snap.Job.ErrorMessage)
	assert.Zero(t, api.resultCalls)
}

func TestSessionFetchError(t *testing.T) {
	api := newFakeBackend()
	api.setStatuses("job-1", reply("job-1", "completed", ""))
	s := NewSession(api)

	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)

	snap := waitSession(t, s)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Nil(t, snap.Result)
	var ferr *ResultFetchError
	require.ErrorAs(t, snap.Err, &ferr)
	assert.Equal(t, 404, ferr.StatusCode)
}

func TestSessionTrack(t *testing.T) {
	api := newFakeBackend()
	api.setStatuses("external", reply("external", "completed", ""))
	api.results["external"] = completedResult("external")
	s := NewSession(api)

	require.NoError(t, s.Track(context.Background(), "external"))
	snap := waitSession(t, s)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "external", snap.Result.JobID)
	assert.Zero(t, api.createCount())

	var verr *ValidationError
	assert.ErrorAs(t, s.Track(context.Background(), ""), &verr)
}

func TestSessionWaitOnEmptySession(t *testing.T) {
	s := NewSession(newFakeBackend())
	snap, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.Generation)
}

func TestSnapshotIsACopy(t *testing.T) {
	api := newFakeBackend()
	api.setStatuses("job-1", reply("job-1", "completed", ""))
	api.results["job-1"] = completedResult("job-1")
	s := NewSession(api)
	_, err := s.Start(context.Background(), validRequest())
	require.NoError(t, err)

	snap := waitSession(t, s)
	snap.Job.Status = models.StatusQueued
	snap.Result.Reports[models.ReportMarket] = "changed"

	again := s.Snapshot()
	assert.Equal(t, models.StatusCompleted, again.Job.Status)
	assert.Equal(t, "## Trend\nflat", again.Result.Report(models.ReportMarket))
}
