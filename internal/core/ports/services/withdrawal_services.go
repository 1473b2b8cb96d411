package services

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// WithdrawalSvcFacade is the payout request workflow consumed by handlers.
type WithdrawalSvcFacade interface {
	// CreateWithdrawal opens a pending payout request, validating the amount
	// against the available balance so the same funds cannot be committed to
	// two simultaneous requests.
	CreateWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, payout domain.PayoutDetails) (*domain.Withdrawal, error)

	// ApproveWithdrawal resolves a pending request, applying a real withdraw
	// to the account. approvedAmount nil means approve the requested amount;
	// it may be lower (partial approval) but never exceeds the available
	// balance plus the request's own reservation.
	ApproveWithdrawal(ctx context.Context, withdrawalID string, approvedAmount *decimal.Decimal, adminNote, receiptRef string) (*domain.Withdrawal, error)

	// RejectWithdrawal resolves a pending request with no balance effect.
	RejectWithdrawal(ctx context.Context, withdrawalID string, adminNote string) (*domain.Withdrawal, error)

	// GetWithdrawal fetches one request by id.
	GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)

	// ListWithdrawals returns filtered requests with owner identity attached
	// where the directory could resolve it.
	ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.WithdrawalListing, error)
}
