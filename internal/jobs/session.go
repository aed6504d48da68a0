package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dyike/manbo/internal/logger"
	"github.com/dyike/manbo/internal/models"
)

// Snapshot is a copy of the session slot.
type Snapshot struct {
	// Generation increases with every Start or Track. Zero means nothing was started.
	Generation uint64
	State      State
	Job        *models.AnalysisJob
	Result     *models.AnalysisResult
	// Err is the validation-free error that ended the job: *SubmissionError,
	// *PollingError, *JobFailure, *ResultFetchError or ErrCancelled.
	Err  error
	Done bool
}

// Submitting reports whether the submission request is still in flight.
func (s Snapshot) Submitting() bool {
	return s.Generation > 0 && s.Job == nil && !s.Done
}

// Fetching reports whether the job completed and its result is being retrieved.
func (s Snapshot) Fetching() bool {
	return s.State == StateCompleted && s.Result == nil && !s.Done
}

type SessionOption func(*Session)

func WithSessionLogger(l *logger.Logger) SessionOption {
	return func(s *Session) { s.log = logger.OrSilent(l) }
}

// WithPollInterval sets the delay between status checks.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithOnChange registers a callback receiving every slot change. It runs
// outside the session lock on the goroutine that made the change.
func WithOnChange(fn func(Snapshot)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// Session owns the single current job/result slot. Starting a new job
// replaces the slot and invalidates every writer of the previous one; only
// callbacks of the active generation can modify it.
type Session struct {
	submitter *Submitter
	fetcher   *Fetcher
	api       StatusChecker
	interval  time.Duration
	onChange  func(Snapshot)
	log       *logger.Logger

	mu      sync.Mutex
	gen     uint64
	slot    Snapshot
	poller  *Poller
	cancel  context.CancelFunc
	changed chan struct{}
}

func NewSession(api Backend, opts ...SessionOption) *Session {
	s := &Session{
		api:      api,
		interval: DefaultPollInterval,
		log:      logger.NewSilent(),
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.submitter = NewSubmitter(api, s.log)
	s.fetcher = NewFetcher(api, s.log)
	return s
}

// Start validates req, replaces the slot, submits and begins polling. A
// validation error leaves the current job untouched. The job is tracked until
// it ends, Cancel is called, another job starts or ctx is done.
func (s *Session) Start(ctx context.Context, req SubmitRequest) (*JobHandle, error) {
	if err := req.Prepare(); err != nil {
		return nil, err
	}

	gen, genCtx := s.replace(ctx)
	handle, err := s.submitter.submitPrepared(genCtx, &req)
	if err != nil {
		s.update(gen, func(slot *Snapshot) {
			slot.State = StateFailed
			slot.Err = err
			slot.Done = true
		})
		return nil, err
	}

	job := handle.Job
	if !s.update(gen, func(slot *Snapshot) { slot.Job = &job }) {
		return handle, ErrCancelled
	}
	s.startPolling(genCtx, gen, handle.ID)
	return handle, nil
}

// Track replaces the slot with an already submitted job and polls it.
func (s *Session) Track(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return &ValidationError{Fields: []FieldError{{Field: "id", Message: "id is required"}}}
	}
	gen, genCtx := s.replace(ctx)
	job := models.AnalysisJob{ID: jobID}
	s.update(gen, func(slot *Snapshot) { slot.Job = &job })
	s.startPolling(genCtx, gen, jobID)
	return nil
}

// Cancel stops tracking the current job. Nothing is sent to the backend.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.slot.Generation == 0 || s.slot.Done {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.slot.State = StateCancelled
	s.slot.Err = ErrCancelled
	s.slot.Done = true
	snap := s.notifyLocked()
	s.mu.Unlock()
	s.emit(snap)
}

// Snapshot returns a copy of the slot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Wait blocks until the current job reaches a terminal view or ctx is done.
// An empty session returns immediately.
func (s *Session) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		if s.slot.Generation == 0 || s.slot.Done {
			snap := s.copyLocked()
			s.mu.Unlock()
			return snap, nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case <-ch:
		}
	}
}

// replace invalidates the previous generation and installs an empty slot.
func (s *Session) replace(ctx context.Context) (uint64, context.Context) {
	genCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	prev := s.slot.Job
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.slot = Snapshot{Generation: gen, State: StateIdle}
	snap := s.notifyLocked()
	s.mu.Unlock()

	if prev != nil {
		s.fetcher.Forget(prev.ID)
		s.log.Debug().Str("job_id", prev.ID).Msg("replaced current job")
	}
	s.emit(snap)
	return gen, genCtx
}

func (s *Session) stopLocked() {
	if s.poller != nil {
		s.poller.Cancel()
		s.poller = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) startPolling(ctx context.Context, gen uint64, jobID string) {
	p := NewPoller(s.api,
		WithInterval(s.interval),
		WithPollerLogger(s.log),
		WithHooks(Hooks{
			OnUpdate: func(u models.StatusUpdate) {
				s.update(gen, func(slot *Snapshot) {
					if slot.Job != nil {
						slot.Job.Apply(u)
					}
				})
			},
			OnCompleted: func(models.StatusUpdate) {
				if !s.update(gen, func(slot *Snapshot) { slot.State = StateCompleted }) {
					return
				}
				res, err := s.fetcher.Fetch(ctx, jobID)
				s.update(gen, func(slot *Snapshot) {
					slot.Result = res
					slot.Err = err
					slot.Done = true
				})
			},
			OnFailed: func(err error) {
				s.update(gen, func(slot *Snapshot) {
					slot.State = StateFailed
					slot.Err = err
					slot.Done = true
					var jf *JobFailure
					if slot.Job != nil && errors.As(err, &jf) {
						slot.Job.ErrorMessage = jf.Reason
					}
				})
			},
		}),
	)

	s.mu.Lock()
	if s.gen != gen || s.slot.Done {
		s.mu.Unlock()
		return
	}
	s.poller = p
	s.slot.State = StatePolling
	snap := s.notifyLocked()
	s.mu.Unlock()
	s.emit(snap)

	if err := p.Start(ctx, jobID); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("start polling")
	}
}

// update applies fn when gen is still the active, unfinished generation.
// Writes from stale generations are dropped and update returns false.
func (s *Session) update(gen uint64, fn func(*Snapshot)) bool {
	s.mu.Lock()
	if s.gen != gen || s.slot.Done {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale update")
		return false
	}
	fn(&s.slot)
	snap := s.notifyLocked()
	s.mu.Unlock()
	s.emit(snap)
	return true
}

func (s *Session) notifyLocked() Snapshot {
	close(s.changed)
	s.changed = make(chan struct{})
	return s.copyLocked()
}

func (s *Session) emit(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) copyLocked() Snapshot {
	snap := s.slot
	if s.slot.Job != nil {
		job := *s.slot.Job
		snap.Job = &job
	}
	snap.Result = s.slot.Result.Clone()
	return snap
}
