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

// DefaultPollInterval is the delay between two status checks.
const DefaultPollInterval = 2 * time.Second

// State is the poller lifecycle.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is absorbing.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Hooks receive poller events on the poller goroutine. A check that resolves
// after Cancel is dropped, but a hook already running when Cancel is called
// completes, so state shared with other goroutines still needs its own guard.
type Hooks struct {
	// OnUpdate sees every status the backend reported, terminal ones included.
	OnUpdate func(models.StatusUpdate)
	// OnCompleted runs once the job completed.
	OnCompleted func(models.StatusUpdate)
	// OnFailed receives a *JobFailure or *PollingError.
	OnFailed func(error)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithPollerLogger(l *logger.Logger) PollerOption {
	return func(p *Poller) {
		p.log = logger.OrSilent(l).Component("poller")
	}
}

// WithHooks installs the event callbacks.
func WithHooks(h Hooks) PollerOption {
	return func(p *Poller) { p.hooks = h }
}

// Poller checks one job's status until it completes, fails or is cancelled.
// Checks are strictly sequential: the next timer is armed only after the
// previous check resolved.
type Poller struct {
	api      StatusChecker
	interval time.Duration
	hooks    Hooks
	log      *logger.Logger

	mu     sync.Mutex
	state  State
	jobID  string
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(api StatusChecker, opts ...PollerOption) *Poller {
	p := &Poller{
		api:      api,
		interval: DefaultPollInterval,
		log:      logger.NewSilent(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start moves the poller from Idle to Polling and issues the first check
// immediately. A poller runs at most once.
func (p *Poller) Start(ctx context.Context, jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return errors.New("poller already started")
	}
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.jobID = jobID
	p.cancel = cancel
	p.state = StatePolling
	go p.run(ctx)
	return nil
}

// Cancel stops interest in the job. Pending checks are discarded; no backend
// call is made. Cancelling a terminal poller is a no-op.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateIdle:
		p.state = StateCancelled
		close(p.done)
	case StatePolling:
		p.state = StateCancelled
		p.err = ErrCancelled
		p.cancel()
	}
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err is the failure that ended polling, if any.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Poller) JobID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID
}

// Done is closed when the polling goroutine exits.
func (p *Poller) Done() <-chan struct{} { return p.done }

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	log := p.log.With().Str("job_id", p.jobID).Logger()
	for attempt := 1; ; attempt++ {
		update, err := p.check(ctx)
		if ctx.Err() != nil {
			p.finish(StateCancelled, ErrCancelled)
		}
		if !p.live() {
			log.Debug().Int("attempt", attempt).Msg("discarding status after cancellation")
			return
		}
		if err != nil {
			failure := &PollingError{JobID: p.jobID, Err: err}
			if p.finish(StateFailed, failure) && p.hooks.OnFailed != nil {
				p.hooks.OnFailed(failure)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("status check failed")
			return
		}

		log.Debug().Str("status", string(update.Status)).Int("attempt", attempt).Msg("status")
		if p.hooks.OnUpdate != nil {
			p.hooks.OnUpdate(update)
		}

		switch update.Status {
		case models.StatusCompleted:
			if p.finish(StateCompleted, nil) && p.hooks.OnCompleted != nil {
				p.hooks.OnCompleted(update)
			}
			return
		case models.StatusFailed:
			reason := update.Error
			if reason == "" {
				reason = DefaultFailureReason
			}
			failure := &JobFailure{JobID: p.jobID, Reason: reason}
			if p.finish(StateFailed, failure) && p.hooks.OnFailed != nil {
				p.hooks.OnFailed(failure)
			}
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.finish(StateCancelled, ErrCancelled)
			return
		case <-timer.C:
		}
	}
}

func (p *Poller) check(ctx context.Context) (models.StatusUpdate, error) {
	resp, err := p.api.AnalysisStatus(ctx, p.jobID)
	if err != nil {
		return models.StatusUpdate{}, err
	}
	return resp.ToStatusUpdate()
}

func (p *Poller) live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StatePolling
}

// finish moves Polling to a terminal state and reports whether it did.
func (p *Poller) finish(to State, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePolling {
		return false
	}
	p.state = to
	p.err = err
	return true
}
