package postgres

import (
	"context"
	"fmt"

	"github.com/andressep95/gameplan-api/internal/domain"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type sessionRepository struct {
	db sqlx.ExtContext
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db sqlx.ExtContext) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO user_sessions (
			id, user_id, expires_at, created_at, ip_address, user_agent
		) VALUES (
			:id, :user_id, :expires_at, :created_at, :ip_address, :user_agent
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, session); err != nil {
		return fmt.Errorf("failed to create session: %w", mapError(err))
	}

	return nil
}

// Validate checks that an unexpired session exists for this user
func (r *sessionRepository) Validate(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_sessions
			WHERE id = $1 AND user_id = $2 AND expires_at > NOW()
		)`

	var ok bool
	if err := sqlx.GetContext(ctx, r.db, &ok, query, sessionID, userID); err != nil {
		return false, fmt.Errorf("failed to validate session: %w", err)
	}

	return ok, nil
}

// Delete removes one session of the user. Missing rows are ignored.
func (r *sessionRepository) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, sessionID, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteAllForUser removes every session of the user, optionally keeping one
func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID, except *uuid.UUID) (int64, error) {
	query := `DELETE FROM user_sessions WHERE user_id = $1`
	args := []interface{}{userID}
	if except != nil {
		query += ` AND id <> $2`
		args = append(args, *except)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// ListActiveByUser retrieves the user's unexpired sessions, newest first
func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at,
			   COALESCE(ip_address, '') AS ip_address,
			   COALESCE(user_agent, '') AS user_agent
		FROM user_sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC`

	var sessions []*domain.Session
	if err := sqlx.SelectContext(ctx, r.db, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// DeleteExpired removes all expired sessions from the database
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
