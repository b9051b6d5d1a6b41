package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"session-auth-service/internal/apperr"
	"session-auth-service/internal/session/domain"
)

const uniqueViolation = "23505"

// PostgresRepository persists sessions in the sessions table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByTokenHash returns the session keyed by the refresh hash, or nil if no
// row matches. Errors are database failures only, never missing rows.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, refresh_token_hash, replaced_by_session_id,
		       user_agent, ip, expires_at, created_at, revoked_at
		FROM sessions
		WHERE refresh_token_hash = $1
	`, hash)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts the session. A duplicate refresh hash fails with a duplicate
// error; the unique index enforces hash uniqueness across all sessions.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, refresh_token_hash, replaced_by_session_id,
			user_agent, ip, expires_at, created_at, revoked_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	`, s.ID(), s.UserID(), s.RefreshTokenHash(), s.ReplacedBySessionID(),
		s.UserAgent(), s.IP(), s.ExpiresAt(), s.CreatedAt(), s.RevokedAt())
	if isUniqueViolation(err) {
		return apperr.Duplicate("refresh token hash already exists")
	}
	return err
}

// Revoke stamps revoked_at once; re-revoking keeps the original timestamp.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, id, time.Now().UTC())
	return err
}

// Rotate consumes old and inserts replacement in one transaction. The
// conditional update is the consumption point: zero rows affected means a
// concurrent refresh won the race and the caller must fail.
func (r *PostgresRepository) Rotate(ctx context.Context, old, replacement *domain.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = $2, replaced_by_session_id = $3
		WHERE id = $1 AND revoked_at IS NULL
	`, old.ID(), old.RevokedAt(), replacement.ID())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionConsumed
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, refresh_token_hash, replaced_by_session_id,
			user_agent, ip, expires_at, created_at, revoked_at
		) VALUES ($1, $2, $3, NULL, NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULL)
	`, replacement.ID(), replacement.UserID(), replacement.RefreshTokenHash(),
		replacement.UserAgent(), replacement.IP(), replacement.ExpiresAt(), replacement.CreatedAt())
	if isUniqueViolation(err) {
		return apperr.Duplicate("refresh token hash already exists")
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		id, userID, hash          string
		replacedBy, userAgent, ip *string
		expiresAt, createdAt      time.Time
		revokedAt                 *time.Time
	)
	if err := row.Scan(&id, &userID, &hash, &replacedBy, &userAgent, &ip, &expiresAt, &createdAt, &revokedAt); err != nil {
		return nil, err
	}
	return domain.Hydrate(domain.HydrateParams{
		ID:                  id,
		UserID:              userID,
		RefreshTokenHash:    hash,
		ReplacedBySessionID: deref(replacedBy),
		UserAgent:           deref(userAgent),
		IP:                  deref(ip),
		ExpiresAt:           expiresAt,
		CreatedAt:           createdAt,
		RevokedAt:           revokedAt,
	}), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
