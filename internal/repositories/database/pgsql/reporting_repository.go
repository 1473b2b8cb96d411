package pgsql

import (
	"context"
	"fmt"

	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

// NewReportingRepository creates a new reporting repository
func NewReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// GetKindSummaries aggregates account counts, balances, cumulative
// withdrawals and pending payout totals grouped by account kind.
func (r *reportingRepository) GetKindSummaries(ctx context.Context) ([]domain.KindSummary, error) {
	query := `
		SELECT
			a.kind,
			COUNT(*) AS account_count,
			COALESCE(SUM(a.balance), 0) AS total_balance,
			COALESCE(SUM(a.total_withdrawn), 0) AS total_withdrawn,
			COALESCE((
				SELECT SUM(w.requested_amount)
				FROM withdrawal_requests w
				WHERE w.kind = a.kind AND w.status = 'PENDING'
			), 0) AS total_pending
		FROM wallet_accounts a
		GROUP BY a.kind
		ORDER BY a.kind;
	`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying wallet summaries: %w", err)
	}
	defer rows.Close()

	var result []domain.KindSummary
	for rows.Next() {
		var row domain.KindSummary
		if err := rows.Scan(
			&row.Kind,
			&row.AccountCount,
			&row.TotalBalance,
			&row.TotalWithdrawn,
			&row.TotalPending,
		); err != nil {
			return nil, fmt.Errorf("error scanning wallet summary row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet summary rows: %w", err)
	}

	if len(result) == 0 {
		return []domain.KindSummary{}, nil
	}
	return result, nil
}
