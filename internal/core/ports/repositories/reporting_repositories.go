package repositories

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
)

// ReportingRepository provides aggregate queries for the reporting façade.
// Reads only; no locking is needed because transaction rows are immutable
// and summaries are advisory.
type ReportingRepository interface {
	// GetKindSummaries aggregates account counts, balances and pending
	// payout totals grouped by account kind.
	GetKindSummaries(ctx context.Context) ([]domain.KindSummary, error)
}
