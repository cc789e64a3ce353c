// Package store defines persistence for agents, knowledge, users and API
// keys, with in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// AgentStatus is the lifecycle state of an agent.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusDraft    AgentStatus = "draft"
)

// AgentTypeBuddhist is the only agent type this system manages. Records of
// any other type are invisible to the builder tools.
const AgentTypeBuddhist = "buddhist"

// Agent is a configured conversational persona.
type Agent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	AgentType    string      `json:"agent_type"`
	Language     string      `json:"language"`
	SystemPrompt string      `json:"system_prompt"`
	Model        string      `json:"model"`
	Temperature  float64     `json:"temperature"`
	Status       AgentStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Knowledge is one entry in an agent's knowledge base.
type Knowledge struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that owns conversations and API keys.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// APIKey authenticates machine clients. Only the SHA-256 digest of the key
// material is stored.
type APIKey struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	KeyHash   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentStore persists agents.
type AgentStore interface {
	Create(ctx context.Context, agent *Agent) error
	Get(ctx context.Context, id string) (*Agent, error)
	Update(ctx context.Context, agent *Agent) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Agent, error)
	Search(ctx context.Context, query string) ([]*Agent, error)
}

// KnowledgeStore persists knowledge base entries.
type KnowledgeStore interface {
	Add(ctx context.Context, entry *Knowledge) error
	Search(ctx context.Context, query string) ([]*Knowledge, error)
	ListByAgent(ctx context.Context, agentID string) ([]*Knowledge, error)
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// APIKeyStore persists API keys by digest.
type APIKeyStore interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]*APIKey, error)
	Delete(ctx context.Context, id string) error
}
