// Package storage defines persistence contracts for directory cache state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// AgentStore persists directory agent records and exposes live queries over
// them. Live subscriptions emit an initial snapshot immediately, then a
// fresh snapshot after every commit that may affect their result set, in
// commit order.
type AgentStore interface {
	// UpsertAgents bulk-replaces agents by ID in one transaction.
	UpsertAgents(ctx context.Context, agents []domain.Agent) error
	// GetAgentByID is a point lookup and returns ErrNotFound when absent.
	GetAgentByID(ctx context.Context, id int64) (domain.Agent, error)
	// CountAgents reports the number of cached agents.
	CountAgents(ctx context.Context) (int, error)
	// DeleteAllAgents clears the agent cache.
	DeleteAllAgents(ctx context.Context) error
	// LiveAllAgents streams all agents ordered by first name ascending.
	LiveAllAgents(ctx context.Context) (*livequery.Subscription[[]domain.Agent], error)
	// LiveAgentsMatching streams agents whose name, email, or username
	// contains query, case-insensitively. A blank query matches all rows.
	LiveAgentsMatching(ctx context.Context, query string) (*livequery.Subscription[[]domain.Agent], error)
}

// PostStore persists agent post records and exposes live queries over them.
type PostStore interface {
	// UpsertPosts bulk-replaces posts by ID in one transaction.
	UpsertPosts(ctx context.Context, posts []domain.Post) error
	// LivePostsForAgent streams an agent's posts ordered by ID descending.
	LivePostsForAgent(ctx context.Context, agentID int64) (*livequery.Subscription[[]domain.Post], error)
	// DeletePostsForAgent removes the cached posts of one agent.
	DeletePostsForAgent(ctx context.Context, agentID int64) error
	// DeleteAllPosts clears the post cache.
	DeleteAllPosts(ctx context.Context) error
}

// RefreshAttempt records the outcome of one refresh run.
type RefreshAttempt struct {
	RunID      string
	Trigger    string
	Outcome    string
	AgentCount int
	LastError  string
	CreatedAt  time.Time
}

// Refresh attempt triggers.
const (
	TriggerScheduled  = "scheduled"
	TriggerManual     = "manual"
	TriggerBackground = "background"
)

// Refresh attempt outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetry     = "retry"
	OutcomeSkipped   = "skipped"
)

// RefreshLogStore persists refresh attempt records.
type RefreshLogStore interface {
	RecordRefreshAttempt(ctx context.Context, attempt RefreshAttempt) error
	ListRefreshAttempts(ctx context.Context, limit int) ([]RefreshAttempt, error)
}
