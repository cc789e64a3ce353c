package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bodhikit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteAgentStore_CRUD(t *testing.T) {
	s := NewSQLiteAgentStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	agent := &Agent{
		ID:           "a1",
		Name:         "Metta Guide",
		Description:  "kindness",
		AgentType:    AgentTypeBuddhist,
		Language:     "en",
		SystemPrompt: "You teach loving kindness.",
		Model:        "gpt-4o-mini",
		Temperature:  0.7,
		Status:       AgentStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Create(ctx, agent); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Metta Guide" || got.SystemPrompt != "You teach loving kindness." {
		t.Errorf("unexpected agent: %+v", got)
	}
	if got.Temperature != 0.7 {
		t.Errorf("temperature did not survive the roundtrip: %v", got.Temperature)
	}

	got.Name = "Renamed"
	got.UpdatedAt = now.Add(time.Second)
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := s.Get(ctx, "a1")
	if updated.Name != "Renamed" {
		t.Errorf("update not applied: %q", updated.Name)
	}

	if err := s.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteAgentStore_NotFound(t *testing.T) {
	s := NewSQLiteAgentStore(openTestDB(t))
	ctx := context.Background()

	if _, err := s.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if err := s.Update(ctx, &Agent{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteAgentStore_ListAndSearch(t *testing.T) {
	s := NewSQLiteAgentStore(openTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"c", "a", "b"} {
		err := s.Create(ctx, &Agent{
			ID:        id,
			Name:      id + " guide",
			AgentType: AgentTypeBuddhist,
			Status:    AgentStatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	agents, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 3 {
		t.Fatalf("expected 3 agents, got %d", len(agents))
	}
	if agents[0].ID != "c" || agents[1].ID != "a" || agents[2].ID != "b" {
		t.Errorf("unexpected order: %s %s %s", agents[0].ID, agents[1].ID, agents[2].ID)
	}

	found, err := s.Search(ctx, "A GUIDE")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "a" {
		t.Fatalf("expected agent a, got %+v", found)
	}
}

func TestSQLiteKnowledgeStore(t *testing.T) {
	s := NewSQLiteKnowledgeStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	s.Add(ctx, &Knowledge{ID: "k1", AgentID: "a1", Title: "Impermanence", Content: "things change", Language: "en", CreatedAt: now})
	s.Add(ctx, &Knowledge{ID: "k2", AgentID: "a2", Title: "Compassion", Content: "metta practice", Language: "en", CreatedAt: now.Add(time.Second)})

	found, err := s.Search(ctx, "metta")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != "k2" {
		t.Fatalf("expected k2, got %+v", found)
	}

	byAgent, err := s.ListByAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("list by agent: %v", err)
	}
	if len(byAgent) != 1 || byAgent[0].ID != "k1" {
		t.Fatalf("expected k1, got %+v", byAgent)
	}
}

func TestSQLiteUserStore(t *testing.T) {
	s := NewSQLiteUserStore(openTestDB(t))
	ctx := context.Background()

	user := &User{ID: "u1", Email: "ananda@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}

	byEmail, err := s.GetByEmail(ctx, "ananda@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("got id %q", byEmail.ID)
	}

	if _, err := s.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Emails are unique at the schema level.
	dup := &User{ID: "u2", Email: "ananda@example.com", PasswordHash: "other", CreatedAt: time.Now().UTC()}
	if err := s.Create(ctx, dup); err == nil {
		t.Error("expected a constraint violation for a duplicate email")
	}
}

func TestSQLiteAPIKeyStore(t *testing.T) {
	s := NewSQLiteAPIKeyStore(openTestDB(t))
	ctx := context.Background()

	key := &APIKey{ID: "k1", UserID: "u1", Name: "ci", KeyHash: "digest", CreatedAt: time.Now().UTC()}
	if err := s.Create(ctx, key); err != nil {
		t.Fatalf("create: %v", err)
	}

	byHash, err := s.GetByHash(ctx, "digest")
	if err != nil {
		t.Fatalf("get by hash: %v", err)
	}
	if byHash.UserID != "u1" {
		t.Errorf("got user %q", byHash.UserID)
	}

	keys, err := s.ListByUser(ctx, "u1")
	if err != nil || len(keys) != 1 {
		t.Fatalf("list by user: %v, %d keys", err, len(keys))
	}

	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetByHash(ctx, "digest"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a second delete, got %v", err)
	}
}

func TestSQLiteStores_SharedDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	agents := NewSQLiteAgentStore(db)
	knowledge := NewSQLiteKnowledgeStore(db)

	now := time.Now().UTC()
	if err := agents.Create(ctx, &Agent{ID: "a1", Name: "Zen Friend", AgentType: AgentTypeBuddhist, Status: AgentStatusActive, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if err := knowledge.Add(ctx, &Knowledge{ID: "k1", AgentID: "a1", Title: "Zazen", Content: "just sitting", CreatedAt: now}); err != nil {
		t.Fatalf("add knowledge: %v", err)
	}

	entries, err := knowledge.ListByAgent(ctx, "a1")
	if err != nil || len(entries) != 1 {
		t.Fatalf("list by agent: %v, %d entries", err, len(entries))
	}
}
