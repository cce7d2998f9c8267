// Package sqlite provides the SQLite-backed directory cache store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/directory/storage"
	"github.com/louisbranch/rolodex/internal/directory/storage/sqlite/migrations"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
	sqlitemigrate "github.com/louisbranch/rolodex/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Change topics for live subscriptions.
const (
	topicAgents    = "agents"
	topicPostsAll  = "posts"
	topicPostsItem = "posts/%d"
)

// Store persists directory cache state in SQLite and broadcasts commits to
// live subscribers.
type Store struct {
	sqlDB *sql.DB
	hub   *livequery.Hub
	fold  cases.Caser
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite directory store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{
		sqlDB: sqlDB,
		hub:   livequery.NewHub(),
		fold:  cases.Fold(),
	}, nil
}

// Close releases the SQLite connection. Live subscriptions must be
// cancelled by their owners first.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertAgents bulk-replaces agents by ID in one transaction and notifies
// agent subscribers after commit.
func (s *Store) UpsertAgents(ctx context.Context, agents []domain.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(agents) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert agents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO agents (
	id, first_name, last_name, maiden_name, age, gender, email, phone,
	username, birth_date, image, blood_group, height, weight, eye_color,
	hair_color, hair_type,
	address_street, address_city, address_state, address_postal_code,
	address_country, address_lat, address_lng,
	company_name, company_department, company_title,
	search_text, cached_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert agents: %w", err)
	}
	defer stmt.Close()

	for _, agent := range agents {
		if agent.ID <= 0 {
			_ = tx.Rollback()
			return fmt.Errorf("agent id is required")
		}
		cachedAt := agent.CachedAt
		if cachedAt.IsZero() {
			cachedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			agent.ID, agent.FirstName, agent.LastName, agent.MaidenName,
			agent.Age, agent.Gender, agent.Email, agent.Phone,
			agent.Username, agent.BirthDate, agent.Image, agent.BloodGroup,
			agent.Height, agent.Weight, agent.EyeColor,
			agent.Hair.Color, agent.Hair.Type,
			agent.Address.Street, agent.Address.City, agent.Address.State,
			agent.Address.PostalCode, agent.Address.Country,
			agent.Address.Coordinates.Lat, agent.Address.Coordinates.Lng,
			agent.Company.Name, agent.Company.Department, agent.Company.Title,
			s.fold.String(agent.SearchText()),
			toMillis(cachedAt),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert agent %d: %w", agent.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert agents: %w", err)
	}

	s.hub.Notify(topicAgents)
	return nil
}

// GetAgentByID returns one cached agent or storage.ErrNotFound.
func (s *Store) GetAgentByID(ctx context.Context, id int64) (domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return domain.Agent{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Agent{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectAgentColumns+" FROM agents WHERE id = ?", id)
	agent, err := scanAgent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Agent{}, storage.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("get agent %d: %w", id, err)
	}
	return agent, nil
}

// CountAgents reports the number of cached agents.
func (s *Store) CountAgents(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var count int
	row := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count agents: %w", err)
	}
	return count, nil
}

// DeleteAllAgents clears the agent cache and notifies subscribers.
func (s *Store) DeleteAllAgents(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM agents"); err != nil {
		return fmt.Errorf("delete all agents: %w", err)
	}
	s.hub.Notify(topicAgents)
	return nil
}

// UpsertPosts bulk-replaces posts by ID in one transaction and notifies the
// affected per-agent subscribers after commit.
func (s *Store) UpsertPosts(ctx context.Context, posts []domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert posts: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO posts (
	id, agent_id, title, body, tags,
	reactions_like, reactions_love, reactions_haha,
	reactions_wow, reactions_sad, reactions_angry,
	cached_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert posts: %w", err)
	}
	defer stmt.Close()

	agentTopics := make(map[int64]struct{})
	for _, post := range posts {
		if post.ID <= 0 {
			_ = tx.Rollback()
			return fmt.Errorf("post id is required")
		}
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		encodedTags, err := json.Marshal(tags)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode tags for post %d: %w", post.ID, err)
		}
		cachedAt := post.CachedAt
		if cachedAt.IsZero() {
			cachedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			post.ID, post.AgentID, post.Title, post.Body, string(encodedTags),
			post.Reactions.Like, post.Reactions.Love, post.Reactions.Haha,
			post.Reactions.Wow, post.Reactions.Sad, post.Reactions.Angry,
			toMillis(cachedAt),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert post %d: %w", post.ID, err)
		}
		agentTopics[post.AgentID] = struct{}{}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert posts: %w", err)
	}

	// topicPostsAll is reserved for whole-table invalidation; per-agent
	// upserts wake only the affected subscribers.
	topics := make([]string, 0, len(agentTopics))
	for agentID := range agentTopics {
		topics = append(topics, fmt.Sprintf(topicPostsItem, agentID))
	}
	s.hub.Notify(topics...)
	return nil
}

// DeletePostsForAgent removes one agent's cached posts.
func (s *Store) DeletePostsForAgent(ctx context.Context, agentID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM posts WHERE agent_id = ?", agentID); err != nil {
		return fmt.Errorf("delete posts for agent %d: %w", agentID, err)
	}
	s.hub.Notify(fmt.Sprintf(topicPostsItem, agentID))
	return nil
}

// DeleteAllPosts clears the post cache.
func (s *Store) DeleteAllPosts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM posts"); err != nil {
		return fmt.Errorf("delete all posts: %w", err)
	}
	s.hub.Notify(topicPostsAll)
	return nil
}

var (
	_ storage.AgentStore      = (*Store)(nil)
	_ storage.PostStore       = (*Store)(nil)
	_ storage.RefreshLogStore = (*Store)(nil)
)
