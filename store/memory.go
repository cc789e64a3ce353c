package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryAgentStore is a mutex-guarded in-memory AgentStore.
type MemoryAgentStore struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewMemoryAgentStore creates an empty in-memory agent store.
func NewMemoryAgentStore() *MemoryAgentStore {
	return &MemoryAgentStore{agents: make(map[string]*Agent)}
}

func (s *MemoryAgentStore) Create(_ context.Context, agent *Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *agent
	s.agents[agent.ID] = &clone
	return nil
}

func (s *MemoryAgentStore) Get(_ context.Context, id string) (*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *agent
	return &clone, nil
}

func (s *MemoryAgentStore) Update(_ context.Context, agent *Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agent.ID]; !ok {
		return ErrNotFound
	}
	clone := *agent
	s.agents[agent.ID] = &clone
	return nil
}

func (s *MemoryAgentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return ErrNotFound
	}
	delete(s.agents, id)
	return nil
}

func (s *MemoryAgentStore) List(_ context.Context) ([]*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		clone := *agent
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryAgentStore) Search(_ context.Context, query string) ([]*Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	out := make([]*Agent, 0)
	for _, agent := range s.agents {
		if strings.Contains(strings.ToLower(agent.Name), needle) ||
			strings.Contains(strings.ToLower(agent.Description), needle) {
			clone := *agent
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryKnowledgeStore is a mutex-guarded in-memory KnowledgeStore.
type MemoryKnowledgeStore struct {
	mu      sync.RWMutex
	entries []*Knowledge
}

// NewMemoryKnowledgeStore creates an empty in-memory knowledge store.
func NewMemoryKnowledgeStore() *MemoryKnowledgeStore {
	return &MemoryKnowledgeStore{}
}

func (s *MemoryKnowledgeStore) Add(_ context.Context, entry *Knowledge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries = append(s.entries, &clone)
	return nil
}

func (s *MemoryKnowledgeStore) Search(_ context.Context, query string) ([]*Knowledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(query)
	out := make([]*Knowledge, 0)
	for _, entry := range s.entries {
		if strings.Contains(strings.ToLower(entry.Title), needle) ||
			strings.Contains(strings.ToLower(entry.Content), needle) {
			clone := *entry
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *MemoryKnowledgeStore) ListByAgent(_ context.Context, agentID string) ([]*Knowledge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Knowledge, 0)
	for _, entry := range s.entries {
		if entry.AgentID == agentID {
			clone := *entry
			out = append(out, &clone)
		}
	}
	return out, nil
}

// MemoryUserStore is a mutex-guarded in-memory UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*User)}
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *MemoryUserStore) Get(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryAPIKeyStore is a mutex-guarded in-memory APIKeyStore.
type MemoryAPIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewMemoryAPIKeyStore creates an empty in-memory API key store.
func NewMemoryAPIKeyStore() *MemoryAPIKeyStore {
	return &MemoryAPIKeyStore{keys: make(map[string]*APIKey)}
}

func (s *MemoryAPIKeyStore) Create(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *key
	s.keys[key.ID] = &clone
	return nil
}

func (s *MemoryAPIKeyStore) GetByHash(_ context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.keys {
		if key.KeyHash == hash {
			clone := *key
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryAPIKeyStore) ListByUser(_ context.Context, userID string) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*APIKey, 0)
	for _, key := range s.keys {
		if key.UserID == userID {
			clone := *key
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryAPIKeyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[id]; !ok {
		return ErrNotFound
	}
	delete(s.keys, id)
	return nil
}
