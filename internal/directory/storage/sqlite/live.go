package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/platform/livequery"
)

const selectAgentColumns = `
SELECT
	id, first_name, last_name, maiden_name, age, gender, email, phone,
	username, birth_date, image, blood_group, height, weight, eye_color,
	hair_color, hair_type,
	address_street, address_city, address_state, address_postal_code,
	address_country, address_lat, address_lng,
	company_name, company_department, company_title,
	cached_at`

const orderAgentsByFirstName = " ORDER BY first_name COLLATE NOCASE ASC, id ASC"

// LiveAllAgents streams every cached agent ordered by first name ascending.
func (s *Store) LiveAllAgents(ctx context.Context) (*livequery.Subscription[[]domain.Agent], error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	return livequery.Stream(ctx, s.hub, []string{topicAgents}, func(ctx context.Context) ([]domain.Agent, error) {
		return s.queryAgents(ctx, selectAgentColumns+" FROM agents"+orderAgentsByFirstName)
	})
}

// LiveAgentsMatching streams agents whose folded search text contains the
// folded query. A blank query matches every row.
func (s *Store) LiveAgentsMatching(ctx context.Context, query string) (*livequery.Subscription[[]domain.Agent], error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	needle := s.fold.String(strings.TrimSpace(query))
	if needle == "" {
		return s.LiveAllAgents(ctx)
	}
	return livequery.Stream(ctx, s.hub, []string{topicAgents}, func(ctx context.Context) ([]domain.Agent, error) {
		return s.queryAgents(ctx,
			selectAgentColumns+" FROM agents WHERE instr(search_text, ?) > 0"+orderAgentsByFirstName,
			needle,
		)
	})
}

// LivePostsForAgent streams one agent's posts ordered by ID descending.
func (s *Store) LivePostsForAgent(ctx context.Context, agentID int64) (*livequery.Subscription[[]domain.Post], error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	topics := []string{fmt.Sprintf(topicPostsItem, agentID), topicPostsAll}
	return livequery.Stream(ctx, s.hub, topics, func(ctx context.Context) ([]domain.Post, error) {
		return s.queryPosts(ctx, agentID)
	})
}

func (s *Store) queryAgents(ctx context.Context, query string, args ...any) ([]domain.Agent, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]domain.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

func (s *Store) queryPosts(ctx context.Context, agentID int64) ([]domain.Post, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id, agent_id, title, body, tags,
	reactions_like, reactions_love, reactions_haha,
	reactions_wow, reactions_sad, reactions_angry,
	cached_at
FROM posts
WHERE agent_id = ?
ORDER BY id DESC
`, agentID)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		var post domain.Post
		var tags string
		var cachedAt int64
		if err := rows.Scan(
			&post.ID, &post.AgentID, &post.Title, &post.Body, &tags,
			&post.Reactions.Like, &post.Reactions.Love, &post.Reactions.Haha,
			&post.Reactions.Wow, &post.Reactions.Sad, &post.Reactions.Angry,
			&cachedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for post %d: %w", post.ID, err)
		}
		post.CachedAt = fromMillis(cachedAt)
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (domain.Agent, error) {
	var agent domain.Agent
	var cachedAt int64
	if err := row.Scan(
		&agent.ID, &agent.FirstName, &agent.LastName, &agent.MaidenName,
		&agent.Age, &agent.Gender, &agent.Email, &agent.Phone,
		&agent.Username, &agent.BirthDate, &agent.Image, &agent.BloodGroup,
		&agent.Height, &agent.Weight, &agent.EyeColor,
		&agent.Hair.Color, &agent.Hair.Type,
		&agent.Address.Street, &agent.Address.City, &agent.Address.State,
		&agent.Address.PostalCode, &agent.Address.Country,
		&agent.Address.Coordinates.Lat, &agent.Address.Coordinates.Lng,
		&agent.Company.Name, &agent.Company.Department, &agent.Company.Title,
		&cachedAt,
	); err != nil {
		return domain.Agent{}, err
	}
	agent.CachedAt = fromMillis(cachedAt)
	return agent, nil
}
