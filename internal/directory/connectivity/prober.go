// Package connectivity tracks whether outbound network access is usable.
//
// Reachability means a probe request against a validation endpoint
// succeeded, not merely that a link is up: a captive portal or a dead
// upstream flips the oracle to unreachable even while the interface stays
// configured.
package connectivity

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/louisbranch/rolodex/internal/platform/livequery"
	"github.com/louisbranch/rolodex/internal/platform/timeouts"
)

const topicReachability = "reachability"

// Oracle exposes the instantaneous check and the live status stream the
// coordinator gates refreshes on.
type Oracle interface {
	// Reachable reports the most recent validated observation.
	Reachable() bool
	// Watch streams the current value immediately, then every transition.
	Watch(ctx context.Context) (*livequery.Subscription[bool], error)
}

// ProberConfig configures the validation endpoint and probe cadence.
type ProberConfig struct {
	// ProbeURL must answer 2xx only when the internet path works.
	ProbeURL string
	// Interval between probes. Defaults to 30 seconds.
	Interval time.Duration
	// HTTPClient defaults to one with the shared probe timeout.
	HTTPClient *http.Client
}

const (
	defaultProbeURL = "https://www.gstatic.com/generate_204"
	defaultInterval = 30 * time.Second
)

// Prober validates reachability on an interval and broadcasts transitions.
type Prober struct {
	cfg       ProberConfig
	hub       *livequery.Hub
	reachable atomic.Bool
}

// NewProber builds a prober. Run must be called for observations to update.
func NewProber(cfg ProberConfig) *Prober {
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = defaultProbeURL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: timeouts.ConnectivityProbe}
	}
	return &Prober{
		cfg: cfg,
		hub: livequery.NewHub(),
	}
}

// Run probes immediately, then on the configured interval until ctx ends.
func (p *Prober) Run(ctx context.Context) error {
	p.observe(p.probe(ctx))

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.observe(p.probe(ctx))
		}
	}
}

// ProbeOnce validates reachability a single time. One-shot tooling calls
// this instead of Run.
func (p *Prober) ProbeOnce(ctx context.Context) bool {
	p.observe(p.probe(ctx))
	return p.reachable.Load()
}

// Reachable reports the last validated observation.
func (p *Prober) Reachable() bool {
	return p.reachable.Load()
}

// Watch opens a live reachability stream. Cancelling the subscription
// releases the underlying observer registration.
func (p *Prober) Watch(ctx context.Context) (*livequery.Subscription[bool], error) {
	return livequery.Stream(ctx, p.hub, []string{topicReachability}, func(context.Context) (bool, error) {
		return p.reachable.Load(), nil
	})
}

func (p *Prober) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.ProbeURL, nil)
	if err != nil {
		return false
	}
	res, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode >= 200 && res.StatusCode < 300
}

// observe records one probe result and notifies watchers on transitions.
func (p *Prober) observe(reachable bool) {
	previous := p.reachable.Swap(reachable)
	if previous != reachable {
		p.hub.Notify(topicReachability)
	}
}

var _ Oracle = (*Prober)(nil)

// Static is a fixed-value oracle for offline tooling and tests.
type Static bool

// Reachable reports the fixed value.
func (s Static) Reachable() bool { return bool(s) }

// Watch streams the fixed value once and never emits again.
func (s Static) Watch(ctx context.Context) (*livequery.Subscription[bool], error) {
	return livequery.Stream(ctx, livequery.NewHub(), nil, func(context.Context) (bool, error) {
		return bool(s), nil
	})
}

var _ Oracle = Static(false)
