package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/rolodex/internal/platform/errors"
)

func TestFetchAgentsDecodesListing(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"users": [
				{"id": 1, "firstName": "Mara", "lastName": "Vance", "email": "mara@example.com"},
				{"id": 2, "firstName": "Ben", "lastName": "Odum", "email": "ben@example.com"}
			],
			"total": 208, "skip": 20, "limit": 2
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	page, err := client.FetchAgents(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("fetch agents: %v", err)
	}

	if gotPath != "/users" {
		t.Fatalf("path = %q, want /users", gotPath)
	}
	if gotQuery != "limit=2&skip=20" {
		t.Fatalf("query = %q, want limit=2&skip=20", gotQuery)
	}
	if len(page.Agents) != 2 {
		t.Fatalf("agents len = %d, want 2", len(page.Agents))
	}
	if page.Agents[0].FirstName != "Mara" {
		t.Fatalf("first agent = %q, want Mara", page.Agents[0].FirstName)
	}
	if page.Total != 208 || page.Skip != 20 || page.Limit != 2 {
		t.Fatalf("window = %d/%d/%d, want 208/20/2", page.Total, page.Skip, page.Limit)
	}
}

func TestFetchAgentsValidatesWindow(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://example.invalid"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchAgents(context.Background(), 0, 0); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("limit 0 code = %v, want invalid argument", errors.CodeOf(err))
	}
	if _, err := client.FetchAgents(context.Background(), 10, -1); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("negative skip code = %v, want invalid argument", errors.CodeOf(err))
	}
}

func TestSearchAgentsSendsTrimmedQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/search" {
			t.Errorf("path = %q, want /users/search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"users": [], "total": 0, "skip": 0, "limit": 0}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	page, err := client.SearchAgents(context.Background(), "  mara  ")
	if err != nil {
		t.Fatalf("search agents: %v", err)
	}
	if gotQuery != "mara" {
		t.Fatalf("q = %q, want trimmed query", gotQuery)
	}
	if len(page.Agents) != 0 {
		t.Fatalf("agents = %v, want empty match set", page.Agents)
	}
}

func TestFetchPostsDecodesReactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/user/7" {
			t.Errorf("path = %q, want /posts/user/7", r.URL.Path)
		}
		w.Write([]byte(`{
			"posts": [{
				"id": 11, "userId": 7, "title": "field notes", "body": "…",
				"tags": ["field"],
				"reactions": {"like": 4, "love": 2, "wow": 1}
			}],
			"total": 1, "skip": 0, "limit": 1
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	page, err := client.FetchPosts(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch posts: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("posts len = %d, want 1", len(page.Posts))
	}
	post := page.Posts[0]
	if post.AgentID != 7 {
		t.Fatalf("agent id = %d, want 7", post.AgentID)
	}
	if post.Reactions.Like != 4 || post.Reactions.Love != 2 || post.Reactions.Wow != 1 {
		t.Fatalf("reactions = %+v", post.Reactions)
	}
	if post.Reactions.Sad != 0 {
		t.Fatalf("absent counter = %d, want zero", post.Reactions.Sad)
	}
}

func TestNon2xxStatusIsApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.FetchAgents(context.Background(), 20, 0)
	if errors.CodeOf(err) != errors.CodeRemoteApplication {
		t.Fatalf("code = %v, want remote application", errors.CodeOf(err))
	}
}

func TestTransportFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.FetchAgents(context.Background(), 20, 0)
	if errors.CodeOf(err) != errors.CodeRemoteTransport {
		t.Fatalf("code = %v, want remote transport", errors.CodeOf(err))
	}
}

func TestMalformedBodyIsApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users": [`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.FetchAgents(context.Background(), 20, 0)
	if errors.CodeOf(err) != errors.CodeRemoteApplication {
		t.Fatalf("code = %v, want remote application", errors.CodeOf(err))
	}
}

func TestMissingUsersFieldIsApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.FetchAgents(context.Background(), 20, 0)
	if errors.CodeOf(err) != errors.CodeRemoteApplication {
		t.Fatalf("code = %v, want remote application", errors.CodeOf(err))
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
