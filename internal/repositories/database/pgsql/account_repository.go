package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/bizlink/walletd/internal/utils/accountnum"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxAccountRepository struct {
	BaseRepository
}

// NewAccountRepository creates a new repository for wallet account data.
func NewAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryWithTx {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryWithTx
var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

const accountColumns = `kind, user_id, account_number, balance, total_earned, total_withdrawn, created_at, updated_at`

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.Kind,
		&acc.UserID,
		&acc.AccountNumber,
		&acc.Balance,
		&acc.TotalEarned,
		&acc.TotalWithdrawn,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// EnsureAccount fetches the account for (kind, userID), creating it with a
// zero balance on first use. Concurrent first use is resolved by the unique
// constraint: the insert is a no-op on conflict and the existing row is
// returned with its balance untouched.
func (r *PgxAccountRepository) EnsureAccount(ctx context.Context, kind domain.AccountKind, userID string, accountNumber string) (*domain.Account, error) {
	insert := `
		INSERT INTO wallet_accounts (kind, user_id, account_number, balance, total_earned, total_withdrawn, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, $4, $4)
		ON CONFLICT (kind, user_id) DO NOTHING;
	`
	now := time.Now().UTC()
	if _, err := r.Pool.Exec(ctx, insert, kind, userID, accountNumber, now); err != nil {
		if isUniqueViolation(err) {
			// The (kind, account_number) constraint: the routing key is
			// already claimed by a different user.
			return nil, fmt.Errorf("%w: account number %s already in use", apperrors.ErrDuplicate, accountNumber)
		}
		return nil, fmt.Errorf("failed to ensure account for user %s: %w", userID, err)
	}

	acc, err := r.FindAccount(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch ensured account for user %s: %w", userID, err)
	}
	return acc, nil
}

// FindAccount retrieves the account owned by userID for the given kind.
func (r *PgxAccountRepository) FindAccount(ctx context.Context, kind domain.AccountKind, userID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE kind = $1 AND user_id = $2;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, kind, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account for user %s: %w", userID, err)
	}
	return acc, nil
}

// FindAccountByNumber retrieves an account by its canonical account number.
func (r *PgxAccountRepository) FindAccountByNumber(ctx context.Context, kind domain.AccountKind, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE kind = $1 AND account_number = $2;`

	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, kind, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by number %s: %w", accountNumber, err)
	}
	return acc, nil
}

// FindAccountByNumberCompat resolves an account number that may be stored in
// either representation: normalized first, then the raw input. Rows written
// before normalization became a write-time rule can still carry raw phone
// strings; this is the single place that tolerates them.
func (r *PgxAccountRepository) FindAccountByNumberCompat(ctx context.Context, kind domain.AccountKind, accountNumber string) (*domain.Account, error) {
	normalized := accountnum.Normalize(accountNumber)
	if normalized != "" {
		acc, err := r.FindAccountByNumber(ctx, kind, normalized)
		if err == nil {
			return acc, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}
	if accountnum.IsNormalized(accountNumber) {
		// The raw input is the canonical form already; retrying it would
		// repeat the query that just missed.
		return nil, apperrors.ErrNotFound
	}
	return r.FindAccountByNumber(ctx, kind, accountNumber)
}

// LockAccountsForUpdate selects the accounts and acquires exclusive row
// locks. Ordering by user_id fixes a single global lock order, so two
// transfers crossing in opposite directions between the same pair of
// accounts cannot deadlock each other.
func (r *PgxAccountRepository) LockAccountsForUpdate(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userIDs []string) (map[string]domain.Account, error) {
	if len(userIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM wallet_accounts
		WHERE kind = $1 AND user_id = ANY($2)
		ORDER BY user_id
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, kind, userIDs)
	if err != nil {
		return nil, mapConflictErr(fmt.Errorf("failed to lock accounts for update: %w", err))
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(userIDs))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accounts[acc.UserID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, mapConflictErr(fmt.Errorf("error iterating locked account rows: %w", err))
	}

	if len(accounts) != len(userIDs) {
		missing := make([]string, 0)
		for _, id := range userIDs {
			if _, found := accounts[id]; !found {
				missing = append(missing, id)
			}
		}
		slog.WarnContext(ctx, "Some accounts requested for update lock were not found", "missing_accounts", missing)
		return nil, fmt.Errorf("%w: could not find or lock accounts: %v", apperrors.ErrNotFound, missing)
	}

	return accounts, nil
}

// ApplyBalanceDeltasInTx adds each delta to the matching account balance
// within the open transaction. The accounts must already be locked.
func (r *PgxAccountRepository) ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, deltas map[string]decimal.Decimal, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	query := `
		UPDATE wallet_accounts
		SET balance = balance + $3, updated_at = $4
		WHERE kind = $1 AND user_id = $2;
	`

	batch := &pgx.Batch{}
	userIDs := make([]string, 0, len(deltas))
	for userID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, kind, userID, delta, now)
		userIDs = append(userIDs, userID)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", userIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s missing during balance update", apperrors.ErrNotFound, userIDs[i])
			}
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}
	if batchErr != nil {
		return mapConflictErr(batchErr)
	}
	return nil
}

// AddCountersInTx bumps the cumulative earned/withdrawn counters for one
// account within the open transaction.
func (r *PgxAccountRepository) AddCountersInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userID string, earnedDelta, withdrawnDelta decimal.Decimal, now time.Time) error {
	if earnedDelta.IsZero() && withdrawnDelta.IsZero() {
		return nil
	}

	query := `
		UPDATE wallet_accounts
		SET total_earned = total_earned + $3, total_withdrawn = total_withdrawn + $4, updated_at = $5
		WHERE kind = $1 AND user_id = $2;
	`
	ct, err := tx.Exec(ctx, query, kind, userID, earnedDelta, withdrawnDelta, now)
	if err != nil {
		return mapConflictErr(fmt.Errorf("failed to update counters for account %s: %w", userID, err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s missing during counter update", apperrors.ErrNotFound, userID)
	}
	return nil
}
