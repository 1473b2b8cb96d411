package repositories

import (
	"context"
	"time"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for wallet accounts.
type AccountReader interface {
	// FindAccount retrieves the account owned by userID for the given kind.
	FindAccount(ctx context.Context, kind domain.AccountKind, userID string) (*domain.Account, error)

	// FindAccountByNumber retrieves an account by its canonical account number.
	FindAccountByNumber(ctx context.Context, kind domain.AccountKind, accountNumber string) (*domain.Account, error)

	// FindAccountByNumberCompat resolves an account number that may be stored
	// in either the canonical or the historical raw representation. It tries
	// the normalized form first and falls back to the raw input. New code
	// paths should use FindAccountByNumber; this exists only for transfer
	// target resolution over pre-migration data.
	FindAccountByNumberCompat(ctx context.Context, kind domain.AccountKind, accountNumber string) (*domain.Account, error)
}

// AccountWriter defines write operations for wallet accounts.
type AccountWriter interface {
	// EnsureAccount fetches the account for (kind, userID), creating it with a
	// zero balance if absent. Safe under concurrent first use: on a unique
	// conflict the existing row is returned with its balance untouched.
	EnsureAccount(ctx context.Context, kind domain.AccountKind, userID string, accountNumber string) (*domain.Account, error)
}

// AccountTransactionSupport defines operations that participate in a ledger
// unit of work. Every method must be called with an open transaction.
type AccountTransactionSupport interface {
	// LockAccountsForUpdate selects the accounts and acquires exclusive row
	// locks, always in ascending user-id order so concurrent multi-account
	// operations cannot deadlock each other. Missing accounts are an error.
	LockAccountsForUpdate(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltasInTx adds each delta to the matching account balance.
	ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, deltas map[string]decimal.Decimal, now time.Time) error

	// AddCountersInTx bumps the cumulative earned/withdrawn counters.
	// Either delta may be zero.
	AddCountersInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userID string, earnedDelta, withdrawnDelta decimal.Decimal, now time.Time) error
}

// AccountRepository combines all account-related repository interfaces.
type AccountRepository interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

// AccountRepositoryWithTx extends AccountRepository with transaction capabilities.
type AccountRepositoryWithTx interface {
	AccountRepository
	TransactionManager
}
