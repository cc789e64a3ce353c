package bodhikit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ApprovalRequest is the record of a proposed sensitive tool call awaiting a
// human verdict. Arguments are captured at interception time and never
// mutated afterward.
type ApprovalRequest struct {
	ID              string         `json:"id"`
	ToolName        string         `json:"tool_name"`
	ToolDescription string         `json:"tool_description"`
	Arguments       map[string]any `json:"arguments"`
	Reasoning       string         `json:"reasoning"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ExecutionContext is the replay payload stored alongside an ApprovalRequest
// under the same id. It holds the exact arguments needed to perform the
// original call once a verdict arrives. The request's display copy and this
// replay copy must never diverge.
type ExecutionContext struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// ApprovalStore persists pending approval requests and their execution
// contexts. Implementations must serialize concurrent resolutions of the
// same id: Take removes and returns atomically, so at most one caller wins.
type ApprovalStore interface {
	Put(ctx context.Context, req *ApprovalRequest, ec *ExecutionContext) error
	Get(ctx context.Context, id string) (*ApprovalRequest, error)
	Take(ctx context.Context, id string) (*ApprovalRequest, *ExecutionContext, error)
	Remove(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]*ApprovalRequest, error)
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}

// MemoryApprovalStore is a mutex-guarded in-memory ApprovalStore. Pending
// state does not survive a process restart; deployments that need durability
// plug in the SQLite-backed store instead.
type MemoryApprovalStore struct {
	mu      sync.Mutex
	entries map[string]*approvalEntry
}

type approvalEntry struct {
	req *ApprovalRequest
	ec  *ExecutionContext
}

// NewMemoryApprovalStore creates an empty in-memory approval store.
func NewMemoryApprovalStore() *MemoryApprovalStore {
	return &MemoryApprovalStore{entries: make(map[string]*approvalEntry)}
}

// Put stores an approval request with its execution context.
func (s *MemoryApprovalStore) Put(_ context.Context, req *ApprovalRequest, ec *ExecutionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[req.ID] = &approvalEntry{req: req, ec: ec}
	return nil
}

// Get returns a pending request without consuming it.
func (s *MemoryApprovalStore) Get(_ context.Context, id string) (*ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, &NotFoundError{Resource: "approval", ID: id}
	}
	return entry.req, nil
}

// Take atomically removes and returns the entry for id. The second caller
// for the same id observes a NotFoundError.
func (s *MemoryApprovalStore) Take(_ context.Context, id string) (*ApprovalRequest, *ExecutionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, nil, &NotFoundError{Resource: "approval", ID: id}
	}
	delete(s.entries, id)
	return entry.req, entry.ec, nil
}

// Remove deletes the entry for id. Removing a nonexistent id is a no-op.
func (s *MemoryApprovalStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// ListPending returns all pending requests, unordered.
func (s *MemoryApprovalStore) ListPending(_ context.Context) ([]*ApprovalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ApprovalRequest, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.req)
	}
	return out, nil
}

// Prune removes entries older than the given duration and returns the count.
func (s *MemoryApprovalStore) Prune(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	pruned := 0
	for id, entry := range s.entries {
		if entry.req.CreatedAt.Before(cutoff) {
			delete(s.entries, id)
			pruned++
		}
	}
	return pruned, nil
}

// DefaultApprovalTTL bounds how long a pending approval stays resolvable.
const DefaultApprovalTTL = 15 * time.Minute

// ManagerConfig configures an approval Manager.
type ManagerConfig struct {
	// Store holds pending state. Defaults to an in-memory store.
	Store ApprovalStore

	// TTL bounds how long a request stays resolvable. Zero means
	// DefaultApprovalTTL; negative disables expiry.
	TTL time.Duration

	Logger *slog.Logger
}

// Manager is the sole authority over pending approvals. It is owned by the
// composition root and passed by reference into the Gateway and Resolver.
type Manager struct {
	store  ApprovalStore
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates an approval manager.
func NewManager(cfg ManagerConfig) *Manager {
	store := cfg.Store
	if store == nil {
		store = NewMemoryApprovalStore()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultApprovalTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Create mints a new approval request with a collision-resistant id and
// stores it together with its execution context. Arguments are deep-copied
// so later mutation by the caller cannot change what was approved.
func (m *Manager) Create(ctx context.Context, toolName, description string, args map[string]any, reasoning string) (*ApprovalRequest, error) {
	captured, err := cloneArguments(args)
	if err != nil {
		return nil, fmt.Errorf("capture arguments for %s: %w", toolName, err)
	}

	req := &ApprovalRequest{
		ID:              uuid.NewString(),
		ToolName:        toolName,
		ToolDescription: description,
		Arguments:       captured,
		Reasoning:       reasoning,
		CreatedAt:       m.now(),
	}
	ec := &ExecutionContext{
		ToolName:  toolName,
		Arguments: captured,
	}

	if err := m.store.Put(ctx, req, ec); err != nil {
		return nil, fmt.Errorf("store approval for %s: %w", toolName, err)
	}

	m.logger.Info("approval request created", "approval_id", req.ID, "tool", toolName)
	return req, nil
}

// Get returns a pending request without consuming it. Expired requests are
// discarded and reported as not found.
func (m *Manager) Get(ctx context.Context, id string) (*ApprovalRequest, error) {
	req, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.expired(req) {
		_ = m.store.Remove(ctx, id)
		return nil, &NotFoundError{Resource: "approval", ID: id}
	}
	return req, nil
}

// Take atomically consumes the pending entry for id. At most one caller
// succeeds per id; everyone else observes a NotFoundError. Expired entries
// are consumed but reported as not found, so a stale verdict never replays.
func (m *Manager) Take(ctx context.Context, id string) (*ApprovalRequest, *ExecutionContext, error) {
	req, ec, err := m.store.Take(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.expired(req) {
		m.logger.Warn("approval request expired", "approval_id", id, "tool", req.ToolName)
		return nil, nil, &NotFoundError{Resource: "approval", ID: id}
	}
	return req, ec, nil
}

// Remove deletes any pending state for id. Idempotent.
func (m *Manager) Remove(ctx context.Context, id string) error {
	return m.store.Remove(ctx, id)
}

// Pending lists pending, unexpired approval requests.
func (m *Manager) Pending(ctx context.Context) ([]*ApprovalRequest, error) {
	reqs, err := m.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ApprovalRequest, 0, len(reqs))
	for _, req := range reqs {
		if m.expired(req) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (m *Manager) expired(req *ApprovalRequest) bool {
	if m.ttl < 0 {
		return false
	}
	return m.now().Sub(req.CreatedAt) > m.ttl
}

// cloneArguments deep-copies a JSON-serializable argument map.
func cloneArguments(args map[string]any) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
