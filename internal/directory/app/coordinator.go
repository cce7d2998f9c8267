// Package app orchestrates the directory cache: it serves reads from the
// persistent store immediately and reconciles with the remote source under
// the offline-mode and reachability gates.
package app

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/rolodex/internal/directory/connectivity"
	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/directory/remote"
	"github.com/louisbranch/rolodex/internal/directory/settings"
	"github.com/louisbranch/rolodex/internal/directory/storage"
	"github.com/louisbranch/rolodex/internal/platform/errors"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
	"github.com/louisbranch/rolodex/internal/platform/timeouts"
)

// DefaultRefreshLimit is the listing window requested when no caller
// specifies one.
const DefaultRefreshLimit = 20

// Coordinator reconciles the remote directory API with the local cache
// under a cache-first policy. It holds no authoritative data of its own;
// every successful fetch is written through to the store before the call
// completes.
type Coordinator struct {
	agents   storage.AgentStore
	posts    storage.PostStore
	source   remote.Source
	network  connectivity.Oracle
	settings settings.Store

	now    func() time.Time
	tracer trace.Tracer
}

// NewCoordinator wires the coordinator's collaborators explicitly. All five
// are required.
func NewCoordinator(
	agents storage.AgentStore,
	posts storage.PostStore,
	source remote.Source,
	network connectivity.Oracle,
	settingsStore settings.Store,
) (*Coordinator, error) {
	if agents == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "agent store is required")
	}
	if posts == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "post store is required")
	}
	if source == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "remote source is required")
	}
	if network == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "connectivity oracle is required")
	}
	if settingsStore == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "settings store is required")
	}
	return &Coordinator{
		agents:   agents,
		posts:    posts,
		source:   source,
		network:  network,
		settings: settingsStore,
		now:      time.Now,
		tracer:   otel.Tracer("rolodex/directory"),
	}, nil
}

// gate applies the offline-mode and reachability checks shared by every
// refresh operation. The check is intentionally racy against reachability
// changing mid-flight: the worst outcome is one skipped or one attempted
// refresh, never a corrupt cache.
func (c *Coordinator) gate(ctx context.Context) error {
	offline, err := c.settings.OfflineOnly(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "read offline mode", err)
	}
	if offline {
		return errors.WithMetadata(errors.CodeNetworkUnavailable, "offline-only mode is enabled",
			map[string]string{"reason": "offline_mode"})
	}
	if !c.network.Reachable() {
		return errors.WithMetadata(errors.CodeNetworkUnavailable, "network is not reachable",
			map[string]string{"reason": "unreachable"})
	}
	return nil
}

// RefreshAgents fetches one listing window from the remote source and
// writes it through to the store. On any failure the store is untouched and
// stale cached rows remain authoritative for readers.
func (c *Coordinator) RefreshAgents(ctx context.Context, limit, skip int) ([]domain.Agent, error) {
	ctx, span := c.tracer.Start(ctx, "directory.RefreshAgents", trace.WithAttributes(
		attribute.Int("limit", limit),
		attribute.Int("skip", skip),
	))
	defer span.End()

	if err := c.gate(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	page, err := c.source.FetchAgents(ctx, limit, skip)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	agents, err := c.cacheAgents(ctx, page.Agents)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return agents, nil
}

// RefreshAgentsBySearch runs the remote search and caches the matches into
// the same agent table the listing refresh uses.
func (c *Coordinator) RefreshAgentsBySearch(ctx context.Context, query string) ([]domain.Agent, error) {
	return c.refreshAgentsBySearch(ctx, query, nil)
}

// refreshAgentsBySearch optionally re-checks apply between the remote call
// returning and the write-through; a false result discards the fetched
// payload so a superseded search never overwrites newer state.
func (c *Coordinator) refreshAgentsBySearch(ctx context.Context, query string, apply func() bool) ([]domain.Agent, error) {
	ctx, span := c.tracer.Start(ctx, "directory.RefreshAgentsBySearch")
	defer span.End()

	if err := c.gate(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	page, err := c.source.SearchAgents(ctx, strings.TrimSpace(query))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if apply != nil && !apply() {
		span.AddEvent("search result superseded")
		return nil, nil
	}
	agents, err := c.cacheAgents(ctx, page.Agents)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return agents, nil
}

// RefreshPostsForAgent fetches one agent's posts and writes them through.
func (c *Coordinator) RefreshPostsForAgent(ctx context.Context, agentID int64) ([]domain.Post, error) {
	ctx, span := c.tracer.Start(ctx, "directory.RefreshPostsForAgent", trace.WithAttributes(
		attribute.Int64("agent_id", agentID),
	))
	defer span.End()

	if err := c.gate(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	page, err := c.source.FetchPosts(ctx, agentID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := c.now().UTC()
	posts := page.Posts
	for i := range posts {
		posts[i].CachedAt = now
	}
	if err := c.posts.UpsertPosts(ctx, posts); err != nil {
		wrapped := errors.Wrap(errors.CodeStorageFailure, "cache posts", err)
		span.RecordError(wrapped)
		return nil, wrapped
	}
	if err := c.settings.RecordRefreshSuccess(ctx); err != nil {
		wrapped := errors.Wrap(errors.CodeStorageFailure, "record refresh success", err)
		span.RecordError(wrapped)
		return nil, wrapped
	}
	return posts, nil
}

// cacheAgents stamps and writes through one fetched agent payload.
func (c *Coordinator) cacheAgents(ctx context.Context, agents []domain.Agent) ([]domain.Agent, error) {
	now := c.now().UTC()
	for i := range agents {
		agents[i].CachedAt = now
	}
	if err := c.agents.UpsertAgents(ctx, agents); err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "cache agents", err)
	}
	if err := c.settings.RecordRefreshSuccess(ctx); err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "record refresh success", err)
	}
	return agents, nil
}

// LiveAgents returns the live cache read for query. A blank query streams
// the full listing; switching between queries is the caller's concern (see
// SearchSession for the atomic-switch path).
func (c *Coordinator) LiveAgents(ctx context.Context, query string) (*livequery.Subscription[[]domain.Agent], error) {
	if strings.TrimSpace(query) == "" {
		return c.agents.LiveAllAgents(ctx)
	}
	return c.agents.LiveAgentsMatching(ctx, query)
}

// LivePosts returns the live cache read for one agent's posts.
func (c *Coordinator) LivePosts(ctx context.Context, agentID int64) (*livequery.Subscription[[]domain.Post], error) {
	return c.posts.LivePostsForAgent(ctx, agentID)
}

// GetAgentCacheFirst returns the cached agent immediately, without waiting
// for any network activity, and triggers a background listing refresh whose
// eventual success reaches subscribers through the store.
func (c *Coordinator) GetAgentCacheFirst(ctx context.Context, id int64) (domain.Agent, error) {
	agent, err := c.agents.GetAgentByID(ctx, id)

	background := context.WithoutCancel(ctx)
	go func() {
		refreshCtx, cancel := context.WithTimeout(background, timeouts.RemoteRequest)
		defer cancel()
		// Failures are swallowed: the cached value already answered the
		// caller, and readers keep whatever the store holds.
		_, _ = c.RefreshAgents(refreshCtx, DefaultRefreshLimit, 0)
	}()

	if err != nil {
		if err == storage.ErrNotFound {
			return domain.Agent{}, errors.Wrap(errors.CodeNotFound, "agent not cached", err)
		}
		return domain.Agent{}, errors.Wrap(errors.CodeStorageFailure, "read cached agent", err)
	}
	return agent, nil
}

// ClearCache drops every cached agent and post. Settings are untouched.
func (c *Coordinator) ClearCache(ctx context.Context) error {
	if err := c.agents.DeleteAllAgents(ctx); err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "clear agent cache", err)
	}
	if err := c.posts.DeleteAllPosts(ctx); err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "clear post cache", err)
	}
	return nil
}

// CountCachedAgents reports how many agents the cache currently holds.
// Callers use it to decide whether a refresh failure is worth surfacing.
func (c *Coordinator) CountCachedAgents(ctx context.Context) (int, error) {
	count, err := c.agents.CountAgents(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "count cached agents", err)
	}
	return count, nil
}
