package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxUserDirectory resolves user identity from the platform's users table.
// That table is owned and written by the user service; the ledger only ever
// reads the three columns it needs.
type PgxUserDirectory struct {
	BaseRepository
}

// NewUserDirectory creates a directory backed by the shared users table.
func NewUserDirectory(pool *pgxpool.Pool) portssvc.UserDirectory {
	return &PgxUserDirectory{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portssvc.UserDirectory = (*PgxUserDirectory)(nil)

// Resolve returns the identity for userID, or ErrNotFound.
func (r *PgxUserDirectory) Resolve(ctx context.Context, userID string) (*domain.UserIdentity, error) {
	query := `SELECT user_id, name, phone FROM users WHERE user_id = $1;`

	var identity domain.UserIdentity
	var name, phone sql.NullString
	err := r.Pool.QueryRow(ctx, query, userID).Scan(&identity.UserID, &name, &phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	identity.Name = name.String
	identity.Phone = phone.String
	return &identity, nil
}
