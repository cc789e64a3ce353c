package bodhikit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sanghalabs/bodhikit/internal/testutil"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(ManagerConfig{})
	ctx := context.Background()

	req, err := m.Create(ctx, "delete_buddhist_agent", "Permanently delete a Buddhist agent",
		map[string]any{"agent_id": "abc"}, "Agent wants to execute delete_buddhist_agent")
	testutil.AssertNoError(t, err)

	if req.ID == "" {
		t.Fatal("expected a generated approval id")
	}
	if req.Reasoning != "Agent wants to execute delete_buddhist_agent" {
		t.Errorf("unexpected reasoning: %s", req.Reasoning)
	}

	got, err := m.Get(ctx, req.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.ToolName, "delete_buddhist_agent")
	testutil.AssertEqual(t, got.Arguments["agent_id"], "abc")
}

func TestManager_Get_Unknown(t *testing.T) {
	m := NewManager(ManagerConfig{})

	_, err := m.Get(context.Background(), "nope")
	testutil.AssertError(t, err)
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestManager_Take_ConsumesEntry(t *testing.T) {
	m := NewManager(ManagerConfig{})
	ctx := context.Background()

	req, err := m.Create(ctx, "create_buddhist_agent", "desc", map[string]any{"name": "Thich"}, "r")
	testutil.AssertNoError(t, err)

	taken, ec, err := m.Take(ctx, req.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, taken.ID, req.ID)
	testutil.AssertEqual(t, ec.ToolName, "create_buddhist_agent")
	testutil.AssertEqual(t, ec.Arguments["name"], "Thich")

	// Second take must fail: the entry is gone.
	_, _, err = m.Take(ctx, req.ID)
	testutil.AssertError(t, err)
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestManager_Take_ConcurrentExactlyOne(t *testing.T) {
	m := NewManager(ManagerConfig{})
	ctx := context.Background()

	req, err := m.Create(ctx, "update_buddhist_agent", "desc", map[string]any{"agent_id": "x"}, "r")
	testutil.AssertNoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := m.Take(ctx, req.ID); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one winner, got %d", count)
	}
}

func TestManager_TTLExpiry(t *testing.T) {
	m := NewManager(ManagerConfig{TTL: time.Minute})
	ctx := context.Background()

	req, err := m.Create(ctx, "delete_buddhist_agent", "desc", nil, "r")
	testutil.AssertNoError(t, err)

	// Shift the manager's clock past the TTL.
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, _, err = m.Take(ctx, req.ID)
	testutil.AssertError(t, err)
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error for expired entry, got %v", err)
	}

	// Expired entries are consumed, not left behind.
	_, err = m.Get(ctx, req.ID)
	testutil.AssertError(t, err)
}

func TestManager_ArgumentsAreDeepCopied(t *testing.T) {
	m := NewManager(ManagerConfig{})
	ctx := context.Background()

	args := map[string]any{
		"name": "Quan Am",
		"config": map[string]any{
			"temperature": 0.5,
			"tags":        []any{"compassion"},
		},
	}
	req, err := m.Create(ctx, "create_buddhist_agent", "desc", args, "r")
	testutil.AssertNoError(t, err)

	// Mutate the caller's copy, including nested structures.
	args["name"] = "changed"
	args["config"].(map[string]any)["temperature"] = 2.0

	got, err := m.Get(ctx, req.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.Arguments["name"], "Quan Am")
	nested := got.Arguments["config"].(map[string]any)
	testutil.AssertEqual(t, nested["temperature"], 0.5)
}

func TestManager_Remove_Idempotent(t *testing.T) {
	m := NewManager(ManagerConfig{})
	ctx := context.Background()

	req, err := m.Create(ctx, "delete_buddhist_agent", "desc", nil, "r")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, m.Remove(ctx, req.ID))
	testutil.AssertNoError(t, m.Remove(ctx, req.ID))
	testutil.AssertNoError(t, m.Remove(ctx, "never-existed"))
}

func TestManager_Pending_SkipsExpired(t *testing.T) {
	m := NewManager(ManagerConfig{TTL: time.Minute})
	ctx := context.Background()

	fresh, err := m.Create(ctx, "create_buddhist_agent", "desc", nil, "r")
	testutil.AssertNoError(t, err)

	stale, err := m.Create(ctx, "delete_buddhist_agent", "desc", nil, "r")
	testutil.AssertNoError(t, err)

	// Age only the stale entry.
	staleReq, _ := m.store.Get(ctx, stale.ID)
	staleReq.CreatedAt = time.Now().Add(-2 * time.Minute)

	pending, err := m.Pending(ctx)
	testutil.AssertNoError(t, err)
	if len(pending) != 1 || pending[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh entry, got %d entries", len(pending))
	}
}

func TestMemoryApprovalStore_Prune(t *testing.T) {
	s := NewMemoryApprovalStore()
	ctx := context.Background()

	old := &ApprovalRequest{ID: "old", ToolName: "t", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &ApprovalRequest{ID: "fresh", ToolName: "t", CreatedAt: time.Now()}
	testutil.AssertNoError(t, s.Put(ctx, old, &ExecutionContext{ToolName: "t"}))
	testutil.AssertNoError(t, s.Put(ctx, fresh, &ExecutionContext{ToolName: "t"}))

	pruned, err := s.Prune(ctx, 30*time.Minute)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pruned, 1)

	_, err = s.Get(ctx, "old")
	testutil.AssertError(t, err)
	_, err = s.Get(ctx, "fresh")
	testutil.AssertNoError(t, err)
}
