package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/quill/internal/errs"
	"github.com/and161185/quill/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// SessionRepo implements SessionRepository over the auths table.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

const insertSession = `
INSERT INTO auths (id, token, refresh_token, expires_at, user_id)
VALUES ($1, $2, $3, $4, $5)`

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	if _, err := r.db.Pool.Exec(ctx, insertSession, s.ID, s.Token, s.RefreshToken, s.ExpiresAt, s.UserID); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Rotate locks the active row holding refreshToken, soft-deletes it and inserts the successor
// in one transaction. A concurrent Rotate with the same token waits on the row lock and then
// finds it consumed.
func (r *SessionRepo) Rotate(
	ctx context.Context, refreshToken string, next func(prev model.Session) (model.Session, error),
) (out model.Session, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Session{}, err
	}
	defer finishTx(ctx, tx, &err)

	const sel = `
SELECT id, token, refresh_token, expires_at, user_id, created_at
FROM auths
WHERE refresh_token=$1 AND deleted_at IS NULL
FOR UPDATE`
	const del = `UPDATE auths SET deleted_at=now(), updated_at=now() WHERE id=$1`

	var prev model.Session
	err = tx.QueryRow(ctx, sel, refreshToken).
		Scan(&prev.ID, &prev.Token, &prev.RefreshToken, &prev.ExpiresAt, &prev.UserID, &prev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = errs.ErrInvalidToken
		}
		return model.Session{}, err
	}

	out, err = next(prev)
	if err != nil {
		return model.Session{}, err
	}
	if _, err = tx.Exec(ctx, del, prev.ID); err != nil {
		return model.Session{}, err
	}
	if _, err = tx.Exec(ctx, insertSession, out.ID, out.Token, out.RefreshToken, out.ExpiresAt, out.UserID); err != nil {
		return model.Session{}, err
	}
	return out, nil
}

// Terminate soft-deletes the active session of userID issued with accessToken.
func (r *SessionRepo) Terminate(ctx context.Context, userID uuid.UUID, accessToken string) error {
	const q = `
UPDATE auths SET deleted_at=now(), updated_at=now()
WHERE user_id=$1 AND token=$2 AND deleted_at IS NULL`
	tag, err := r.db.Pool.Exec(ctx, q, userID, accessToken)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAuthNotFound
	}
	return nil
}
