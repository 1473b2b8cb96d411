package services

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
)

// UserDirectory resolves user identity from the externally-managed user
// store. The ledger uses it to verify a user exists before creating an
// account and to enrich transaction details and payout listings with
// display names. Enrichment callers treat a failed resolution as a nil
// identity rather than an operation failure.
type UserDirectory interface {
	Resolve(ctx context.Context, userID string) (*domain.UserIdentity, error)
}
