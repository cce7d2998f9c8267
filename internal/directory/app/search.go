package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
)

// DefaultSearchDebounce is the quiescence window before a settled query
// fires a remote search.
const DefaultSearchDebounce = 500 * time.Millisecond

// SearchSession drives one interactive search over the agent cache.
//
// Every query change re-points the live cache subscription immediately: the
// output stream switches to the new query's result set with no overlap and
// no gap. The remote search is debounced: it fires only after the debounce
// window passes without further input, and a search still in flight when a
// newer query settles is superseded — its payload is discarded on arrival
// instead of being cached.
type SearchSession struct {
	coordinator *Coordinator
	debounce    time.Duration

	queries chan string
	updates chan []domain.Agent

	generation atomic.Int64

	ctx       context.Context
	cancelCtx context.CancelFunc
	closeOnce sync.Once
	loopDone  chan struct{}
}

// NewSearchSession opens a session starting on the blank query (full
// listing). A non-positive debounce gets the default window.
func NewSearchSession(ctx context.Context, coordinator *Coordinator, debounce time.Duration) (*SearchSession, error) {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	sessionCtx, cancel := context.WithCancel(ctx)

	sub, err := coordinator.LiveAgents(sessionCtx, "")
	if err != nil {
		cancel()
		return nil, err
	}

	s := &SearchSession{
		coordinator: coordinator,
		debounce:    debounce,
		queries:     make(chan string, 1),
		updates:     make(chan []domain.Agent, 1),
		ctx:         sessionCtx,
		cancelCtx:   cancel,
		loopDone:    make(chan struct{}),
	}
	go s.run(sub)
	return s, nil
}

// Updates returns the snapshot stream for the session's current query.
func (s *SearchSession) Updates() <-chan []domain.Agent {
	return s.updates
}

// SetQuery feeds one keystroke's worth of query text. Never blocks; when
// input outpaces the loop, intermediate values coalesce to the newest.
func (s *SearchSession) SetQuery(query string) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case s.queries <- query:
			return
		default:
			select {
			case <-s.queries:
			default:
			}
		}
	}
}

// Close cancels the live subscription and any pending remote search.
func (s *SearchSession) Close() {
	s.closeOnce.Do(func() {
		s.cancelCtx()
		<-s.loopDone
	})
}

func (s *SearchSession) run(sub *livequery.Subscription[[]domain.Agent]) {
	defer close(s.loopDone)
	defer close(s.updates)
	defer func() {
		sub.Cancel()
	}()

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	current := ""
	for {
		select {
		case <-s.ctx.Done():
			return

		case query := <-s.queries:
			if query == current {
				continue
			}
			current = query
			s.generation.Add(1)

			// Re-point the cache read first so the switch is atomic for
			// the subscriber, then re-arm the remote debounce.
			next, err := s.coordinator.LiveAgents(s.ctx, query)
			if err == nil {
				sub.Cancel()
				sub = next
			}

			stopTimer(timer)
			if strings.TrimSpace(query) != "" {
				timer.Reset(s.debounce)
			}

		case snapshot, ok := <-sub.Updates():
			if !ok {
				continue
			}
			s.push(snapshot)

		case <-timer.C:
			s.fireRemoteSearch(current)
		}
	}
}

// fireRemoteSearch starts the settled query's remote search off the loop
// goroutine so input handling never blocks on the network.
func (s *SearchSession) fireRemoteSearch(query string) {
	generation := s.generation.Load()
	go func() {
		// Stale-generation results are discarded between the remote call
		// returning and the write-through.
		_, _ = s.coordinator.refreshAgentsBySearch(s.ctx, query, func() bool {
			return s.generation.Load() == generation
		})
	}()
}

func (s *SearchSession) push(snapshot []domain.Agent) {
	for {
		select {
		case s.updates <- snapshot:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
