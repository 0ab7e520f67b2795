package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/data/pgxutil"
	apperrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

var _ ports.TokenStore = (*TokenRepo)(nil)

// TokenRepo stores one bearer credential per browser session in Postgres.
type TokenRepo struct {
	DB *sql.DB
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db}
}

// Save upserts the token for sessionID.
func (r *TokenRepo) Save(ctx context.Context, sessionID, token string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session ID cannot be empty")
	}

	_, err := pgxutil.Exec(ctx, r.DB, `
		INSERT INTO console_tokens (session_id, token_key, token)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, token_key)
		DO UPDATE SET token = EXCLUDED.token, updated_at = now()`,
		sessionID, ports.TokenKey, token)
	if err != nil {
		return fmt.Errorf("save token: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Get returns the token for sessionID or ports.ErrTokenNotFound.
// Reading refreshes updated_at, so PurgeIdle only removes abandoned sessions.
func (r *TokenRepo) Get(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ports.ErrTokenNotFound
	}

	var token string
	err := pgxutil.WithConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			UPDATE console_tokens SET updated_at = now()
			WHERE session_id = $1 AND token_key = $2
			RETURNING token`,
			sessionID, ports.TokenKey,
		).Scan(&token)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ports.ErrTokenNotFound
		}
		return "", fmt.Errorf("get token: %w", apperrors.MapDBError(err))
	}
	return token, nil
}

// Delete removes the token for sessionID. Missing rows are not an error.
func (r *TokenRepo) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}

	_, err := pgxutil.Exec(ctx, r.DB,
		`DELETE FROM console_tokens WHERE session_id = $1 AND token_key = $2`,
		sessionID, ports.TokenKey)
	if err != nil {
		return fmt.Errorf("delete token: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeIdle deletes tokens not read or written since the given number of seconds and reports how many went.
func (r *TokenRepo) PurgeIdle(ctx context.Context, idleSeconds int64) (int64, error) {
	if idleSeconds <= 0 {
		return 0, errors.New("idle seconds must be positive")
	}

	n, err := pgxutil.Exec(ctx, r.DB,
		`DELETE FROM console_tokens WHERE updated_at < now() - make_interval(secs => $1)`,
		float64(idleSeconds))
	if err != nil {
		return 0, fmt.Errorf("purge idle tokens: %w", apperrors.MapDBError(err))
	}
	return n, nil
}
