package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	portssvc "github.com/bizlink/walletd/internal/core/ports/services"
	"github.com/bizlink/walletd/internal/middleware"
	"github.com/shopspring/decimal"
)

// withdrawalService implements the payout request workflow for one account
// kind. A request reserves funds while pending (by reducing the available
// balance), then resolves exactly once: approval applies a real withdraw to
// the account in the same unit of work that flips the status, rejection
// releases the reservation with no balance effect.
type withdrawalService struct {
	kind        domain.AccountKind
	accounts    portsrepo.AccountRepositoryWithTx
	txns        portsrepo.TransactionRepository
	withdrawals portsrepo.WithdrawalRepository
	directory   portssvc.UserDirectory
	maxAttempts int
}

// NewWithdrawalService creates a payout workflow bound to one account kind.
func NewWithdrawalService(
	kind domain.AccountKind,
	accounts portsrepo.AccountRepositoryWithTx,
	txns portsrepo.TransactionRepository,
	withdrawals portsrepo.WithdrawalRepository,
	directory portssvc.UserDirectory,
) portssvc.WithdrawalSvcFacade {
	return &withdrawalService{
		kind:        kind,
		accounts:    accounts,
		txns:        txns,
		withdrawals: withdrawals,
		directory:   directory,
		maxAttempts: defaultMaxAttempts,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*withdrawalService)(nil)

// CreateWithdrawal opens a pending payout request. The amount is validated
// against the available balance inside the same transaction that locks the
// account row, so two simultaneous requests cannot commit the same funds:
// whichever wins the lock reduces availability for the loser's check.
func (s *withdrawalService) CreateWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, payout domain.PayoutDetails) (*domain.Withdrawal, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	return runWithRetry(ctx, logger, s.maxAttempts, "create_withdrawal", func(ctx context.Context) (*domain.Withdrawal, error) {
		tx, err := s.accounts.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer s.accounts.Rollback(ctx, tx)

		locked, err := s.accounts.LockAccountsForUpdate(ctx, tx, s.kind, []string{userID})
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotFound, userID)
			}
			return nil, err
		}
		account := locked[userID]

		pending, err := s.withdrawals.SumPendingInTx(ctx, tx, s.kind, userID)
		if err != nil {
			return nil, err
		}
		available := account.Balance.Sub(pending)
		if available.LessThan(amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s", apperrors.ErrInsufficientAvailableBalance, available, amount)
		}

		now := time.Now().UTC()
		withdrawal := domain.Withdrawal{
			WithdrawalID:    uuid.NewString(),
			UserID:          userID,
			Kind:            s.kind,
			RequestedAmount: amount,
			ApprovedAmount:  decimal.Zero,
			Status:          domain.WithdrawalPending,
			Payout:          payout,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.withdrawals.SaveWithdrawalInTx(ctx, tx, withdrawal); err != nil {
			return nil, err
		}

		if err := s.accounts.Commit(ctx, tx); err != nil {
			return nil, err
		}
		return &withdrawal, nil
	})
}

// ApproveWithdrawal resolves a pending request and applies the real
// withdraw. approvedAmount defaults to the requested amount and may be set
// lower for a partial approval. Because the request's own reservation is
// already excluded from the available balance, the cap adds it back:
// approved <= available + requested, which also keeps the balance >= 0.
func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID string, approvedAmount *decimal.Decimal, adminNote, receiptRef string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	return runWithRetry(ctx, logger, s.maxAttempts, "approve_withdrawal", func(ctx context.Context) (*domain.Withdrawal, error) {
		tx, err := s.accounts.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer s.accounts.Rollback(ctx, tx)

		withdrawal, err := s.withdrawals.LockWithdrawalForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			return nil, err
		}
		if withdrawal.Kind != s.kind {
			return nil, fmt.Errorf("%w: withdrawal %s", apperrors.ErrNotFound, withdrawalID)
		}
		if withdrawal.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: withdrawal %s is %s", apperrors.ErrAlreadyProcessed, withdrawalID, withdrawal.Status)
		}

		approved := withdrawal.RequestedAmount
		if approvedAmount != nil {
			approved = *approvedAmount
		}
		if err := validateAmount(approved); err != nil {
			return nil, err
		}

		locked, err := s.accounts.LockAccountsForUpdate(ctx, tx, s.kind, []string{withdrawal.UserID})
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotFound, withdrawal.UserID)
			}
			return nil, err
		}
		account := locked[withdrawal.UserID]

		pending, err := s.withdrawals.SumPendingInTx(ctx, tx, s.kind, withdrawal.UserID)
		if err != nil {
			return nil, err
		}
		// pending still includes this request; add its reservation back
		// before comparing.
		maxApprovable := account.Balance.Sub(pending).Add(withdrawal.RequestedAmount)
		if maxApprovable.LessThan(approved) {
			return nil, fmt.Errorf("%w: approvable at most %s, got %s", apperrors.ErrInsufficientAvailableBalance, maxApprovable, approved)
		}

		now := time.Now().UTC()
		if err := s.accounts.ApplyBalanceDeltasInTx(ctx, tx, s.kind, map[string]decimal.Decimal{withdrawal.UserID: approved.Neg()}, now); err != nil {
			return nil, err
		}

		txn := domain.Transaction{
			TransactionID: uuid.NewString(),
			UserID:        withdrawal.UserID,
			Kind:          s.kind,
			Type:          domain.Withdraw,
			Amount:        approved,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance.Sub(approved),
			Description:   "withdrawal request " + withdrawal.WithdrawalID + " approved",
			CreatedAt:     now,
		}
		if err := s.txns.AppendTransactionInTx(ctx, tx, txn); err != nil {
			return nil, err
		}

		if err := s.accounts.AddCountersInTx(ctx, tx, s.kind, withdrawal.UserID, decimal.Zero, approved, now); err != nil {
			return nil, err
		}

		if err := s.withdrawals.ResolveWithdrawalInTx(ctx, tx, withdrawalID, domain.WithdrawalApproved, approved, adminNote, receiptRef, now); err != nil {
			return nil, err
		}

		if err := s.accounts.Commit(ctx, tx); err != nil {
			return nil, err
		}

		withdrawal.Status = domain.WithdrawalApproved
		withdrawal.ApprovedAmount = approved
		withdrawal.AdminNote = adminNote
		withdrawal.Payout.ReceiptRef = receiptRef
		withdrawal.UpdatedAt = now
		logger.Info("Withdrawal approved",
			slog.String("withdrawal_id", withdrawalID),
			slog.String("user_id", withdrawal.UserID),
			slog.String("approved_amount", approved.String()),
		)
		return withdrawal, nil
	})
}

// RejectWithdrawal resolves a pending request with no balance effect; the
// reservation is simply released.
func (s *withdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID string, adminNote string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	return runWithRetry(ctx, logger, s.maxAttempts, "reject_withdrawal", func(ctx context.Context) (*domain.Withdrawal, error) {
		tx, err := s.accounts.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer s.accounts.Rollback(ctx, tx)

		withdrawal, err := s.withdrawals.LockWithdrawalForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			return nil, err
		}
		if withdrawal.Kind != s.kind {
			return nil, fmt.Errorf("%w: withdrawal %s", apperrors.ErrNotFound, withdrawalID)
		}
		if withdrawal.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: withdrawal %s is %s", apperrors.ErrAlreadyProcessed, withdrawalID, withdrawal.Status)
		}

		now := time.Now().UTC()
		if err := s.withdrawals.ResolveWithdrawalInTx(ctx, tx, withdrawalID, domain.WithdrawalRejected, decimal.Zero, adminNote, "", now); err != nil {
			return nil, err
		}

		if err := s.accounts.Commit(ctx, tx); err != nil {
			return nil, err
		}

		withdrawal.Status = domain.WithdrawalRejected
		withdrawal.AdminNote = adminNote
		withdrawal.UpdatedAt = now
		return withdrawal, nil
	})
}

// GetWithdrawal fetches one request by id, scoped to this engine's kind.
func (s *withdrawalService) GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	withdrawal, err := s.withdrawals.FindWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Kind != s.kind {
		return nil, fmt.Errorf("%w: withdrawal %s", apperrors.ErrNotFound, withdrawalID)
	}
	return withdrawal, nil
}

// ListWithdrawals returns filtered requests with owner identity attached.
// Identity resolution degrades to an id-only row on a directory miss.
func (s *withdrawalService) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.WithdrawalListing, error) {
	filter.Kind = s.kind
	withdrawals, err := s.withdrawals.ListWithdrawals(ctx, filter)
	if err != nil {
		return nil, err
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	listings := make([]domain.WithdrawalListing, len(withdrawals))
	for i, w := range withdrawals {
		listings[i] = domain.WithdrawalListing{Withdrawal: w}
		identity, err := s.directory.Resolve(ctx, w.UserID)
		if err != nil {
			logger.Warn("Failed to resolve withdrawal owner",
				slog.String("withdrawal_id", w.WithdrawalID),
				slog.String("user_id", w.UserID),
				slog.String("error", err.Error()))
			continue
		}
		listings[i].Owner = &domain.PartyInfo{
			UserID: identity.UserID,
			Name:   identity.Name,
		}
	}
	return listings, nil
}
