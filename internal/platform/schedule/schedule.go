// Package schedule runs uniquely-named periodic jobs in-process.
//
// A job reports an Outcome per run; a retry outcome reschedules the next run
// with exponential backoff until a run succeeds, at which point the regular
// interval resumes. Registering a name that already has a pending job is a
// no-op, and jobs can be cancelled by name.
package schedule

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Outcome is the result a job reports for one run.
type Outcome int

const (
	// OutcomeSuccess means the run finished and the regular interval applies.
	OutcomeSuccess Outcome = iota
	// OutcomeRetry means the run failed and should be retried with backoff.
	OutcomeRetry
)

// JobFunc is one run of a periodic job. Implementations must honor ctx.
type JobFunc func(ctx context.Context) Outcome

// JobConfig controls pacing and gating for one registered job.
type JobConfig struct {
	// Interval between successful runs. Defaults to 15 minutes.
	Interval time.Duration
	// RequiresNetwork skips a run (without consuming a retry) when the
	// scheduler's network gate reports unreachable.
	RequiresNetwork bool
	// RetryBackoff is the delay before the first retry. Defaults to 30s.
	RetryBackoff time.Duration
	// RetryMaxDelay caps the exponential retry delay. Defaults to 10m.
	RetryMaxDelay time.Duration
}

const (
	defaultInterval      = 15 * time.Minute
	defaultRetryBackoff  = 30 * time.Second
	defaultRetryMaxDelay = 10 * time.Minute
)

func (c JobConfig) normalized() JobConfig {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	return c
}

// NetworkGate reports whether network-gated jobs may run. A nil gate allows
// every run.
type NetworkGate func() bool

// Scheduler owns the registered jobs. Each job runs on its own goroutine;
// runs of the same job never overlap.
type Scheduler struct {
	gate NetworkGate

	mu     sync.Mutex
	jobs   map[string]context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New creates a scheduler with the given network gate (may be nil).
func New(gate NetworkGate) *Scheduler {
	return &Scheduler{
		gate: gate,
		jobs: make(map[string]context.CancelFunc),
	}
}

// Register starts a periodic job under name. It reports false without side
// effects when a job with the same name is already pending or the scheduler
// is closed.
func (s *Scheduler) Register(name string, cfg JobConfig, fn JobFunc) bool {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return false
	}
	cfg = cfg.normalized()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if _, exists := s.jobs[name]; exists {
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.jobs[name] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.runLoop(ctx, cfg, fn)
	}()
	return true
}

// Cancel stops the named job. It reports whether a job was pending.
func (s *Scheduler) Cancel(name string) bool {
	name = strings.TrimSpace(name)
	s.mu.Lock()
	cancel, exists := s.jobs[name]
	if exists {
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	if exists {
		cancel()
	}
	return exists
}

// Close cancels every job and waits for their loops to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	cancels := make([]context.CancelFunc, 0, len(s.jobs))
	for name, cancel := range s.jobs {
		cancels = append(cancels, cancel)
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, cfg JobConfig, fn JobFunc) {
	delay := cfg.Interval
	retryDelay := time.Duration(0)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if cfg.RequiresNetwork && s.gate != nil && !s.gate() {
			// Skipped runs keep the regular cadence and do not escalate
			// the retry delay.
			timer.Reset(cfg.Interval)
			continue
		}

		switch fn(ctx) {
		case OutcomeRetry:
			if retryDelay <= 0 {
				retryDelay = cfg.RetryBackoff
			} else {
				retryDelay *= 2
			}
			if retryDelay > cfg.RetryMaxDelay {
				retryDelay = cfg.RetryMaxDelay
			}
			delay = retryDelay
		default:
			retryDelay = 0
			delay = cfg.Interval
		}
		timer.Reset(delay)
	}
}
