package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	agent_type    TEXT NOT NULL,
	language      TEXT NOT NULL DEFAULT 'en',
	system_prompt TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	temperature   REAL NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'active',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS knowledge (
	id         TEXT PRIMARY KEY,
	agent_id   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT 'en',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS api_keys (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	key_hash   TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS approvals (
	id         TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	execution  TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// DB wraps a SQLite database handle shared by the SQL-backed stores.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and bootstraps the
// schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &DB{sql: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error { return d.sql.Close() }

// SQL exposes the raw handle for stores sharing this database.
func (d *DB) SQL() *sql.DB { return d.sql }

// SQLiteAgentStore is the SQLite-backed AgentStore.
type SQLiteAgentStore struct {
	db *DB
}

// NewSQLiteAgentStore creates an agent store on an open database.
func NewSQLiteAgentStore(db *DB) *SQLiteAgentStore {
	return &SQLiteAgentStore{db: db}
}

const agentColumns = "id, name, description, agent_type, language, system_prompt, model, temperature, status, created_at, updated_at"

func (s *SQLiteAgentStore) Create(ctx context.Context, agent *Agent) error {
	_, err := s.db.sql.ExecContext(ctx,
		"INSERT INTO agents ("+agentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		agent.ID, agent.Name, agent.Description, agent.AgentType, agent.Language,
		agent.SystemPrompt, agent.Model, agent.Temperature, agent.Status,
		agent.CreatedAt, agent.UpdatedAt)
	return err
}

func (s *SQLiteAgentStore) Get(ctx context.Context, id string) (*Agent, error) {
	row := s.db.sql.QueryRowContext(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	return scanAgent(row)
}

func (s *SQLiteAgentStore) Update(ctx context.Context, agent *Agent) error {
	res, err := s.db.sql.ExecContext(ctx,
		`UPDATE agents SET name = ?, description = ?, agent_type = ?, language = ?,
			system_prompt = ?, model = ?, temperature = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		agent.Name, agent.Description, agent.AgentType, agent.Language,
		agent.SystemPrompt, agent.Model, agent.Temperature, agent.Status,
		agent.UpdatedAt, agent.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteAgentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteAgentStore) List(ctx context.Context) ([]*Agent, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		"SELECT "+agentColumns+" FROM agents ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

func (s *SQLiteAgentStore) Search(ctx context.Context, query string) ([]*Agent, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.sql.QueryContext(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE name LIKE ? OR description LIKE ? ORDER BY created_at",
		pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgents(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.AgentType, &a.Language,
		&a.SystemPrompt, &a.Model, &a.Temperature, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAgents(rows *sql.Rows) ([]*Agent, error) {
	out := make([]*Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, agent)
	}
	return out, rows.Err()
}

// SQLiteKnowledgeStore is the SQLite-backed KnowledgeStore.
type SQLiteKnowledgeStore struct {
	db *DB
}

// NewSQLiteKnowledgeStore creates a knowledge store on an open database.
func NewSQLiteKnowledgeStore(db *DB) *SQLiteKnowledgeStore {
	return &SQLiteKnowledgeStore{db: db}
}

func (s *SQLiteKnowledgeStore) Add(ctx context.Context, entry *Knowledge) error {
	_, err := s.db.sql.ExecContext(ctx,
		"INSERT INTO knowledge (id, agent_id, title, content, category, language, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.AgentID, entry.Title, entry.Content, entry.Category, entry.Language, entry.CreatedAt)
	return err
}

func (s *SQLiteKnowledgeStore) Search(ctx context.Context, query string) ([]*Knowledge, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.sql.QueryContext(ctx,
		"SELECT id, agent_id, title, content, category, language, created_at FROM knowledge WHERE title LIKE ? OR content LIKE ? ORDER BY created_at",
		pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

func (s *SQLiteKnowledgeStore) ListByAgent(ctx context.Context, agentID string) ([]*Knowledge, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		"SELECT id, agent_id, title, content, category, language, created_at FROM knowledge WHERE agent_id = ? ORDER BY created_at",
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

func scanKnowledge(rows *sql.Rows) ([]*Knowledge, error) {
	out := make([]*Knowledge, 0)
	for rows.Next() {
		var k Knowledge
		if err := rows.Scan(&k.ID, &k.AgentID, &k.Title, &k.Content, &k.Category, &k.Language, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}

// SQLiteUserStore is the SQLite-backed UserStore.
type SQLiteUserStore struct {
	db *DB
}

// NewSQLiteUserStore creates a user store on an open database.
func NewSQLiteUserStore(db *DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) Create(ctx context.Context, user *User) error {
	_, err := s.db.sql.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

func (s *SQLiteUserStore) Get(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.sql.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email))
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SQLiteAPIKeyStore is the SQLite-backed APIKeyStore.
type SQLiteAPIKeyStore struct {
	db *DB
}

// NewSQLiteAPIKeyStore creates an API key store on an open database.
func NewSQLiteAPIKeyStore(db *DB) *SQLiteAPIKeyStore {
	return &SQLiteAPIKeyStore{db: db}
}

func (s *SQLiteAPIKeyStore) Create(ctx context.Context, key *APIKey) error {
	_, err := s.db.sql.ExecContext(ctx,
		"INSERT INTO api_keys (id, user_id, name, key_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		key.ID, key.UserID, key.Name, key.KeyHash, key.CreatedAt)
	return err
}

func (s *SQLiteAPIKeyStore) GetByHash(ctx context.Context, hash string) (*APIKey, error) {
	var k APIKey
	err := s.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, name, key_hash, created_at FROM api_keys WHERE key_hash = ?", hash).
		Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *SQLiteAPIKeyStore) ListByUser(ctx context.Context, userID string) ([]*APIKey, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		"SELECT id, user_id, name, key_hash, created_at FROM api_keys WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*APIKey, 0)
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &k)
	}
	return out, rows.Err()
}

func (s *SQLiteAPIKeyStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
