package jobs

import (
	"context"
	"sync"

	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

// Fetcher retrieves a completed job's result. Results are memoised per job so a
// repeated call returns an equivalent snapshot without another request.
type Fetcher struct {
	api ResultGetter
	log *logger.Logger

	mu      sync.Mutex
	results map[string]*models.AnalysisResult
}

func NewFetcher(api ResultGetter, log *logger.Logger) *Fetcher {
	return &Fetcher{
		api:     api,
		log:     logger.OrSilent(log).Component("fetcher"),
		results: make(map[string]*models.AnalysisResult),
	}
}

// Fetch returns the result of jobID. Failures are *ResultFetchError and are not retried.
func (f *Fetcher) Fetch(ctx context.Context, jobID string) (*models.AnalysisResult, error) {
	f.mu.Lock()
	if res, ok := f.results[jobID]; ok {
		f.mu.Unlock()
		return res.Clone(), nil
	}
	f.mu.Unlock()

	resp, err := f.api.AnalysisResult(ctx, jobID)
	if err != nil {
		f.log.Warn().Err(err).Str("job_id", jobID).Msg("result fetch failed")
		return nil, newResultFetchError(jobID, err)
	}
	res, err := resp.ToResult()
	if err != nil {
		return nil, &ResultFetchError{JobID: jobID, Message: err.Error(), Err: err}
	}
	if res.JobID == "" {
		res.JobID = jobID
	}

	f.mu.Lock()
	f.results[jobID] = res
	f.mu.Unlock()

	f.log.Debug().
		Str("job_id", jobID).
		Int("reports", len(res.Reports)).
		Int("candles", len(res.MarketData)).
		Msg("result fetched")
	return res.Clone(), nil
}

// Forget drops the memoised result of jobID.
func (f *Fetcher) Forget(jobID string) {
	f.mu.Lock()
	delete(f.results, jobID)
	f.mu.Unlock()
}
