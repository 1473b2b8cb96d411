package services

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
)

// ReportingSvcFacade exposes read-only aggregations for admin dashboards.
type ReportingSvcFacade interface {
	// Summary aggregates balances and pending payouts across all accounts,
	// per account kind.
	Summary(ctx context.Context) (*domain.WalletSummary, error)
}
