package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/rolodex/internal/directory/domain"
)

func agentNames(agents []domain.Agent) []string {
	names := make([]string, len(agents))
	for i, agent := range agents {
		names[i] = agent.FirstName
	}
	return names
}

func waitSnapshot[T any](t *testing.T, updates <-chan T) T {
	t.Helper()
	select {
	case snapshot := <-updates:
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		panic("unreachable")
	}
}

func TestLiveAllAgentsInitialSnapshotIsEmpty(t *testing.T) {
	store := openTempStore(t)
	sub, err := store.LiveAllAgents(context.Background())
	if err != nil {
		t.Fatalf("live all agents: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", snapshot)
	}
}

func TestLiveAllAgentsEmitsAfterUpsert(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	sub, err := store.LiveAllAgents(ctx)
	if err != nil {
		t.Fatalf("live all agents: %v", err)
	}
	defer sub.Cancel()
	waitSnapshot(t, sub.Updates())

	if err := store.UpsertAgents(ctx, []domain.Agent{agentFixture(1, "Mara")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 1 || snapshot[0].FirstName != "Mara" {
		t.Fatalf("snapshot = %v, want the upserted agent", agentNames(snapshot))
	}
}

func TestLiveAllAgentsOrdersByFirstName(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	agents := []domain.Agent{
		agentFixture(1, "zoya"),
		agentFixture(2, "Alvar"),
		agentFixture(3, "Mara"),
	}
	if err := store.UpsertAgents(ctx, agents); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := store.LiveAllAgents(ctx)
	if err != nil {
		t.Fatalf("live all agents: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	got := agentNames(snapshot)
	want := []string{"Alvar", "Mara", "zoya"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestLiveAgentsMatchingIsCaseInsensitive(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.UpsertAgents(ctx, []domain.Agent{
		agentFixture(1, "Mara"),
		agentFixture(2, "Ben"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := store.LiveAgentsMatching(ctx, "MARA")
	if err != nil {
		t.Fatalf("live agents matching: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 1 || snapshot[0].FirstName != "Mara" {
		t.Fatalf("snapshot = %v, want only Mara", agentNames(snapshot))
	}
}

func TestLiveAgentsMatchingBlankQueryMatchesAll(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.UpsertAgents(ctx, []domain.Agent{
		agentFixture(1, "Mara"),
		agentFixture(2, "Ben"),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := store.LiveAgentsMatching(ctx, "   ")
	if err != nil {
		t.Fatalf("live agents matching: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 2 {
		t.Fatalf("snapshot = %v, want both agents", agentNames(snapshot))
	}
}

func TestLiveAgentsMatchingSearchesEmailAndUsername(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	agent := agentFixture(1, "Mara")
	agent.Email = "field.ops@example.com"
	if err := store.UpsertAgents(ctx, []domain.Agent{agent, agentFixture(2, "Ben")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sub, err := store.LiveAgentsMatching(ctx, "field.ops")
	if err != nil {
		t.Fatalf("live agents matching: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 1 || snapshot[0].ID != 1 {
		t.Fatalf("snapshot = %v, want the email match", agentNames(snapshot))
	}
}

func TestLivePostsForAgentOrdersNewestFirst(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.UpsertPosts(ctx, []domain.Post{
		postFixture(1, 7), postFixture(3, 7), postFixture(2, 7), postFixture(9, 8),
	}); err != nil {
		t.Fatalf("upsert posts: %v", err)
	}

	sub, err := store.LivePostsForAgent(ctx, 7)
	if err != nil {
		t.Fatalf("live posts: %v", err)
	}
	defer sub.Cancel()

	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snapshot))
	}
	for i, wantID := range []int64{3, 2, 1} {
		if snapshot[i].ID != wantID {
			t.Fatalf("snapshot[%d].ID = %d, want %d", i, snapshot[i].ID, wantID)
		}
	}
}

func TestLivePostsForAgentIgnoresOtherAgents(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	sub, err := store.LivePostsForAgent(ctx, 7)
	if err != nil {
		t.Fatalf("live posts: %v", err)
	}
	defer sub.Cancel()
	waitSnapshot(t, sub.Updates())

	// A write to a different agent must not wake this subscription.
	if err := store.UpsertPosts(ctx, []domain.Post{postFixture(1, 8)}); err != nil {
		t.Fatalf("upsert posts: %v", err)
	}
	select {
	case snapshot := <-sub.Updates():
		t.Fatalf("unexpected emission: %v", snapshot)
	case <-time.After(100 * time.Millisecond):
	}

	if err := store.UpsertPosts(ctx, []domain.Post{postFixture(2, 7)}); err != nil {
		t.Fatalf("upsert posts: %v", err)
	}
	snapshot := waitSnapshot(t, sub.Updates())
	if len(snapshot) != 1 || snapshot[0].ID != 2 {
		t.Fatalf("snapshot = %v, want the agent's own post", snapshot)
	}
}

func TestLiveSubscriptionCancelStopsEmissions(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	sub, err := store.LiveAllAgents(ctx)
	if err != nil {
		t.Fatalf("live all agents: %v", err)
	}
	waitSnapshot(t, sub.Updates())
	sub.Cancel()

	for range sub.Updates() {
	}
}
