package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/domain"
	"github.com/louisbranch/rolodex/internal/directory/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func agentFixture(id int64, firstName string) domain.Agent {
	return domain.Agent{
		ID:        id,
		FirstName: firstName,
		LastName:  "Vance",
		Email:     firstName + "@example.com",
		Username:  firstName + ".vance",
		Age:       34,
		Address: domain.Address{
			City:        "Porto",
			Country:     "Portugal",
			Coordinates: domain.Coordinates{Lat: 41.15, Lng: -8.63},
		},
		Company:  domain.Company{Name: "Altura Ltd", Title: "Analyst"},
		CachedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertAgentsReplacesByID(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	first := agentFixture(1, "Mara")
	if err := store.UpsertAgents(ctx, []domain.Agent{first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := agentFixture(1, "Nadia")
	second.Email = "nadia@example.com"
	second.CachedAt = first.CachedAt.Add(time.Hour)
	if err := store.UpsertAgents(ctx, []domain.Agent{second}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	count, err := store.CountAgents(ctx)
	if err != nil {
		t.Fatalf("count agents: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	got, err := store.GetAgentByID(ctx, 1)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if got.FirstName != "Nadia" {
		t.Fatalf("first name = %q, want %q", got.FirstName, "Nadia")
	}
	if got.Email != "nadia@example.com" {
		t.Fatalf("email = %q, want replaced", got.Email)
	}
	if !got.CachedAt.Equal(second.CachedAt) {
		t.Fatalf("cached at = %v, want %v", got.CachedAt, second.CachedAt)
	}
}

func TestUpsertAgentsRejectsMissingID(t *testing.T) {
	store := openTempStore(t)
	err := store.UpsertAgents(context.Background(), []domain.Agent{{FirstName: "NoID"}})
	if err == nil {
		t.Fatal("expected error for agent without id")
	}
}

func TestGetAgentByIDNotFound(t *testing.T) {
	store := openTempStore(t)
	_, err := store.GetAgentByID(context.Background(), 404)
	if err != storage.ErrNotFound {
		t.Fatalf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestDeleteAllAgents(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	agents := []domain.Agent{agentFixture(1, "Mara"), agentFixture(2, "Ben")}
	if err := store.UpsertAgents(ctx, agents); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.DeleteAllAgents(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	count, err := store.CountAgents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func postFixture(id, agentID int64) domain.Post {
	return domain.Post{
		ID:      id,
		AgentID: agentID,
		Title:   "field notes",
		Body:    "observations from the field",
		Tags:    []string{"field", "notes"},
		Reactions: domain.Reactions{
			Like: 3,
			Wow:  1,
		},
		CachedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertAndDeletePosts(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	posts := []domain.Post{postFixture(1, 7), postFixture(2, 7), postFixture(3, 9)}
	if err := store.UpsertPosts(ctx, posts); err != nil {
		t.Fatalf("upsert posts: %v", err)
	}

	if err := store.DeletePostsForAgent(ctx, 7); err != nil {
		t.Fatalf("delete posts for agent: %v", err)
	}

	sub, err := store.LivePostsForAgent(ctx, 9)
	if err != nil {
		t.Fatalf("live posts: %v", err)
	}
	defer sub.Cancel()
	snapshot := <-sub.Updates()
	if len(snapshot) != 1 || snapshot[0].ID != 3 {
		t.Fatalf("agent 9 posts = %v, want the single surviving post", snapshot)
	}

	if err := store.DeleteAllPosts(ctx); err != nil {
		t.Fatalf("delete all posts: %v", err)
	}
}

func TestPostRoundTripPreservesTagsAndReactions(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	post := postFixture(1, 7)
	post.Reactions = domain.Reactions{Like: 2, Love: 4, Haha: 1, Wow: 5, Sad: 3, Angry: 6}
	if err := store.UpsertPosts(ctx, []domain.Post{post}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := store.LivePostsForAgent(ctx, 7)
	if err != nil {
		t.Fatalf("live posts: %v", err)
	}
	defer sub.Cancel()
	snapshot := <-sub.Updates()
	if len(snapshot) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snapshot))
	}
	got := snapshot[0]
	if len(got.Tags) != 2 || got.Tags[0] != "field" || got.Tags[1] != "notes" {
		t.Fatalf("tags = %v, want ordered [field notes]", got.Tags)
	}
	if got.Reactions != post.Reactions {
		t.Fatalf("reactions = %+v, want %+v", got.Reactions, post.Reactions)
	}
	if got.Reactions.Total() != 21 {
		t.Fatalf("reactions total = %d, want 21", got.Reactions.Total())
	}
}

func TestRecordAndListRefreshAttempts(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	if err := store.RecordRefreshAttempt(ctx, storage.RefreshAttempt{
		RunID:     "run-1",
		Trigger:   storage.TriggerScheduled,
		Outcome:   storage.OutcomeRetry,
		LastError: "remote down",
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("record first attempt: %v", err)
	}
	if err := store.RecordRefreshAttempt(ctx, storage.RefreshAttempt{
		RunID:      "run-2",
		Trigger:    storage.TriggerScheduled,
		Outcome:    storage.OutcomeSucceeded,
		AgentCount: 20,
		CreatedAt:  now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("record second attempt: %v", err)
	}

	attempts, err := store.ListRefreshAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts len = %d, want 2", len(attempts))
	}
	if attempts[0].RunID != "run-2" {
		t.Fatalf("attempts[0] = %q, want newest first", attempts[0].RunID)
	}
	if attempts[0].AgentCount != 20 {
		t.Fatalf("agent count = %d, want 20", attempts[0].AgentCount)
	}
	if attempts[1].LastError != "remote down" {
		t.Fatalf("last error = %q", attempts[1].LastError)
	}
}

func TestRecordRefreshAttemptValidation(t *testing.T) {
	store := openTempStore(t)
	if err := store.RecordRefreshAttempt(context.Background(), storage.RefreshAttempt{}); err == nil {
		t.Fatal("expected validation error for empty attempt")
	}
}
