package repositories

import (
	"context"
	"time"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WithdrawalFilter narrows admin listings of payout requests.
type WithdrawalFilter struct {
	Kind   domain.AccountKind
	Status *domain.WithdrawalStatus
	UserID *string
	// Search matches against the owner's identity (user id, directory name
	// and phone) and payout coordinate fields (account name, bank name,
	// reference).
	Search string
	Limit  int
	Offset int
}

// WithdrawalReader defines read operations for payout requests.
type WithdrawalReader interface {
	// FindWithdrawal retrieves one request by id.
	FindWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)

	// SumPending returns the total amount reserved by pending requests for
	// the account. Zero when there are none.
	SumPending(ctx context.Context, kind domain.AccountKind, userID string) (decimal.Decimal, error)

	// SumPendingInTx is SumPending evaluated inside an open unit of work, so
	// available-balance checks observe the same snapshot as the row locks
	// taken in that transaction.
	SumPendingInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userID string) (decimal.Decimal, error)

	// ListWithdrawals retrieves requests matching the filter, newest first.
	ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]domain.Withdrawal, error)
}

// WithdrawalWriter defines write operations for payout requests.
type WithdrawalWriter interface {
	// SaveWithdrawalInTx inserts a new pending request inside the unit of
	// work that validated the available balance it reserves against.
	SaveWithdrawalInTx(ctx context.Context, tx pgx.Tx, withdrawal domain.Withdrawal) error

	// LockWithdrawalForUpdate fetches the request and acquires an exclusive
	// row lock, serializing concurrent resolution attempts.
	LockWithdrawalForUpdate(ctx context.Context, tx pgx.Tx, withdrawalID string) (*domain.Withdrawal, error)

	// ResolveWithdrawalInTx writes the terminal status, the approved amount
	// (zero for rejections), the admin note and receipt reference.
	ResolveWithdrawalInTx(ctx context.Context, tx pgx.Tx, withdrawalID string, status domain.WithdrawalStatus, approvedAmount decimal.Decimal, adminNote, receiptRef string, now time.Time) error
}

// WithdrawalRepository combines the payout request interfaces.
type WithdrawalRepository interface {
	WithdrawalReader
	WithdrawalWriter
}
