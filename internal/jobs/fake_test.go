package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dyike/manbo/internal/backend"
)

type statusReply struct {
	resp *backend.StatusResponse
	err  error
	// gate, when set, holds the reply until closed. The context is ignored so
	// the reply arrives even after the caller gave up.
	gate chan struct{}
}

type fakeBackend struct {
	mu          sync.Mutex
	nextID      int
	createErr   error
	creates     []backend.CreateAnalysisRequest
	statuses    map[string][]statusReply
	statusCalls map[string]int
	results     map[string]*backend.ResultResponse
	resultErr   error
	resultCalls int
	started     chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		statuses:    make(map[string][]statusReply),
		statusCalls: make(map[string]int),
		results:     make(map[string]*backend.ResultResponse),
		started:     make(chan string, 64),
	}
}

func (f *fakeBackend) CreateAnalysis(_ context.Context, req backend.CreateAnalysisRequest) (*backend.CreateAnalysisResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	return &backend.CreateAnalysisResponse{
		AnalysisID: fmt.Sprintf("job-%d", f.nextID),
		Status:     "queued",
		Message:    "queued",
		Symbol:     req.Symbol,
	}, nil
}

func (f *fakeBackend) AnalysisStatus(_ context.Context, id string) (*backend.StatusResponse, error) {
	f.mu.Lock()
	idx := f.statusCalls[id]
	f.statusCalls[id]++
	replies := f.statuses[id]
	f.mu.Unlock()

	select {
	case f.started <- id:
	default:
	}

	if len(replies) == 0 {
		return statusOf(id, "running", ""), nil
	}
	if idx >= len(replies) {
		idx = len(replies) - 1
	}
	r := replies[idx]
	if r.gate != nil {
		<-r.gate
	}
	return r.resp, r.err
}

func (f *fakeBackend) AnalysisResult(_ context.Context, id string) (*backend.ResultResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls++
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return nil, &backend.APIError{StatusCode: 404, Endpoint: "GET /analysis/" + id, Message: "Analysis not found"}
}

func (f *fakeBackend) setStatuses(id string, replies ...statusReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = replies
}

func (f *fakeBackend) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[id]
}

func (f *fakeBackend) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func reply(id, status, errMsg string) statusReply {
	return statusReply{resp: statusOf(id, status, errMsg)}
}

func statusOf(id, status, errMsg string) *backend.StatusResponse {
	resp := &backend.StatusResponse{
		ID:        id,
		Status:    status,
		Symbol:    "AAPL",
		Market:    "美股",
		CreatedAt: "2024-01-15T10:30:00",
	}
	if errMsg != "" {
		resp.Error = &errMsg
	}
	return resp
}

func completedResult(id string) *backend.ResultResponse {
	return &backend.ResultResponse{
		ID:     id,
		Status: "completed",
		Symbol: "AAPL",
		Market: "美股",
		Result: &backend.ResultPayload{
			Success:   true,
			Action:    "HOLD",
			Reasoning: "wait for earnings",
			Reports:   map[string]json.RawMessage{"market_report": json.RawMessage(`"## Trend\nflat"`)},
		},
	}
}
