// Package remote implements the stateless HTTP client for the upstream
// directory API. It performs no caching and no retries; refresh policy lives
// in the coordinator.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/platform/errors"
	"github.com/louisbranch/rolodex/internal/platform/timeouts"
)

// Source is the request surface the coordinator consumes.
type Source interface {
	FetchAgents(ctx context.Context, limit, skip int) (AgentPage, error)
	SearchAgents(ctx context.Context, query string) (AgentPage, error)
	FetchPosts(ctx context.Context, agentID int64) (PostPage, error)
}

// AgentPage is one window of the upstream agent listing.
type AgentPage struct {
	Agents []domain.Agent `json:"users"`
	Total  int            `json:"total"`
	Skip   int            `json:"skip"`
	Limit  int            `json:"limit"`
}

// PostPage is one window of an agent's upstream posts.
type PostPage struct {
	Posts []domain.Post `json:"posts"`
	Total int           `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

// Config configures the upstream endpoint and HTTP behavior.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client talks to the upstream directory API.
type Client struct {
	cfg Config
}

// NewClient builds a directory API client. A nil HTTP client gets the
// shared request timeout applied.
func NewClient(cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: timeouts.RemoteRequest}
	}
	return &Client{cfg: cfg}, nil
}

// FetchAgents requests one limit/skip window of the agent listing.
func (c *Client) FetchAgents(ctx context.Context, limit, skip int) (AgentPage, error) {
	if limit <= 0 {
		return AgentPage{}, errors.New(errors.CodeInvalidArgument, "limit must be greater than zero")
	}
	if skip < 0 {
		return AgentPage{}, errors.New(errors.CodeInvalidArgument, "skip must not be negative")
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("skip", strconv.Itoa(skip))

	var page AgentPage
	if err := c.get(ctx, "/users?"+query.Encode(), &page); err != nil {
		return AgentPage{}, err
	}
	if page.Agents == nil {
		return AgentPage{}, errors.New(errors.CodeRemoteApplication, "agent listing response missing users")
	}
	return page, nil
}

// SearchAgents requests the remote substring search.
func (c *Client) SearchAgents(ctx context.Context, searchQuery string) (AgentPage, error) {
	query := url.Values{}
	query.Set("q", strings.TrimSpace(searchQuery))

	var page AgentPage
	if err := c.get(ctx, "/users/search?"+query.Encode(), &page); err != nil {
		return AgentPage{}, err
	}
	if page.Agents == nil {
		return AgentPage{}, errors.New(errors.CodeRemoteApplication, "agent search response missing users")
	}
	return page, nil
}

// FetchPosts requests every upstream post of one agent.
func (c *Client) FetchPosts(ctx context.Context, agentID int64) (PostPage, error) {
	if agentID <= 0 {
		return PostPage{}, errors.New(errors.CodeInvalidArgument, "agent id is required")
	}

	var page PostPage
	if err := c.get(ctx, fmt.Sprintf("/posts/user/%d", agentID), &page); err != nil {
		return PostPage{}, err
	}
	if page.Posts == nil {
		return PostPage{}, errors.New(errors.CodeRemoteApplication, "post listing response missing posts")
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "build directory request", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeRemoteTransport, "directory request failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return errors.Wrap(errors.CodeRemoteApplication,
				fmt.Sprintf("directory request status %d", res.StatusCode), readErr)
		}
		return errors.WithMetadata(errors.CodeRemoteApplication,
			fmt.Sprintf("directory request status %d: %s", res.StatusCode, strings.TrimSpace(string(body))),
			map[string]string{"status": strconv.Itoa(res.StatusCode)})
	}

	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		return errors.Wrap(errors.CodeRemoteApplication, "decode directory response", err)
	}
	return nil
}

var _ Source = (*Client)(nil)
