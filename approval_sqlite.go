package bodhikit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sanghalabs/bodhikit/store"
)

// SQLiteApprovalStore persists pending approvals in SQLite so suspended
// turns survive a process restart.
type SQLiteApprovalStore struct {
	db *store.DB
}

// NewSQLiteApprovalStore creates an approval store on an open database.
func NewSQLiteApprovalStore(db *store.DB) *SQLiteApprovalStore {
	return &SQLiteApprovalStore{db: db}
}

// Put stores an approval request with its execution context.
func (s *SQLiteApprovalStore) Put(ctx context.Context, req *ApprovalRequest, ec *ExecutionContext) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal approval request: %w", err)
	}
	ecJSON, err := json.Marshal(ec)
	if err != nil {
		return fmt.Errorf("marshal execution context: %w", err)
	}
	_, err = s.db.SQL().ExecContext(ctx,
		"INSERT INTO approvals (id, request, execution, created_at) VALUES (?, ?, ?, ?)",
		req.ID, string(reqJSON), string(ecJSON), req.CreatedAt)
	return err
}

// Get returns a pending request without consuming it.
func (s *SQLiteApprovalStore) Get(ctx context.Context, id string) (*ApprovalRequest, error) {
	var reqJSON string
	err := s.db.SQL().QueryRowContext(ctx,
		"SELECT request FROM approvals WHERE id = ?", id).Scan(&reqJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "approval", ID: id}
	}
	if err != nil {
		return nil, err
	}
	var req ApprovalRequest
	if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
		return nil, fmt.Errorf("unmarshal approval request %s: %w", id, err)
	}
	return &req, nil
}

// Take atomically removes and returns the entry for id. The read and delete
// run in one transaction so concurrent verdicts cannot both win.
func (s *SQLiteApprovalStore) Take(ctx context.Context, id string) (*ApprovalRequest, *ExecutionContext, error) {
	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var reqJSON, ecJSON string
	err = tx.QueryRowContext(ctx,
		"SELECT request, execution FROM approvals WHERE id = ?", id).Scan(&reqJSON, &ecJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, &NotFoundError{Resource: "approval", ID: id}
	}
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM approvals WHERE id = ?", id); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	var req ApprovalRequest
	if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
		return nil, nil, fmt.Errorf("unmarshal approval request %s: %w", id, err)
	}
	var ec ExecutionContext
	if err := json.Unmarshal([]byte(ecJSON), &ec); err != nil {
		return nil, nil, fmt.Errorf("unmarshal execution context %s: %w", id, err)
	}
	return &req, &ec, nil
}

// Remove deletes the entry for id. Removing a nonexistent id is a no-op.
func (s *SQLiteApprovalStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.SQL().ExecContext(ctx, "DELETE FROM approvals WHERE id = ?", id)
	return err
}

// ListPending returns all pending requests ordered by creation time.
func (s *SQLiteApprovalStore) ListPending(ctx context.Context) ([]*ApprovalRequest, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		"SELECT request FROM approvals ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*ApprovalRequest, 0)
	for rows.Next() {
		var reqJSON string
		if err := rows.Scan(&reqJSON); err != nil {
			return nil, err
		}
		var req ApprovalRequest
		if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
			return nil, fmt.Errorf("unmarshal approval request: %w", err)
		}
		out = append(out, &req)
	}
	return out, rows.Err()
}

// Prune removes entries older than the given duration and returns the count.
func (s *SQLiteApprovalStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.SQL().ExecContext(ctx,
		"DELETE FROM approvals WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
