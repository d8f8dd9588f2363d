package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-management/internal/apperr"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
// A row belongs to either a hotel or a user account.
type TokenRepo struct{ db DBTX }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, accountType string, accountID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_type, account_id, token_hash, expires_at) VALUES (?,?,?,?)",
		accountType, accountID, tokenHash, exp.UTC())
	return translate(err)
}

// ValidateRefresh returns the owner of a non-revoked, non-expired token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, uint64, error) {
	var (
		accountType string
		accountID   uint64
		expiresAt   time.Time
		revokedAt   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT account_type, account_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&accountType, &accountID, &expiresAt, &revokedAt)
	if err != nil {
		return "", 0, notFound(err, "refresh token", "")
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", 0, apperr.NotFound("refresh token", "")
	}
	return accountType, accountID, nil
}

// RevokeByHash marks a live token as revoked. The UPDATE re-reads the row
// under its lock, so a second caller with the same token matches nothing.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP()
		 WHERE token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`,
		tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllFor revokes every active token of one account.
func (r *TokenRepo) RevokeAllFor(ctx context.Context, accountType string, accountID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE account_type=? AND account_id=? AND revoked_at IS NULL",
		accountType, accountID)
	return err
}
