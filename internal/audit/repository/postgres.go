// Package repository persists audit events in postgres.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"session-auth-service/internal/audit"
)

// PostgresRepository persists audit events in the audit_events table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an audit repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert appends one audit event.
func (r *PostgresRepository) Insert(ctx context.Context, e *audit.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, kind, user_id, session_id, ip, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
	`, e.ID, e.Kind, e.UserID, e.SessionID, e.IP, e.CreatedAt)
	return err
}

// ListByUser returns events for a user, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*audit.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, COALESCE(user_id, ''), COALESCE(session_id, ''), COALESCE(ip, ''), created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.UserID, &e.SessionID, &e.IP, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
