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
	"github.com/bizlink/walletd/internal/utils/accountnum"
	"github.com/shopspring/decimal"
)

// walletService implements the ledger engine for one account kind. Every
// mutating operation runs inside a single database transaction with
// exclusive row locks on the accounts it touches; the row lock, not an
// in-process mutex, is the unit of mutual exclusion, so the guarantees hold
// across multiple server processes.
type walletService struct {
	kind        domain.AccountKind
	accounts    portsrepo.AccountRepositoryWithTx
	txns        portsrepo.TransactionRepository
	withdrawals portsrepo.WithdrawalReader
	directory   portssvc.UserDirectory
	maxAttempts int
}

// NewWalletService creates a ledger engine bound to one account kind.
func NewWalletService(
	kind domain.AccountKind,
	accounts portsrepo.AccountRepositoryWithTx,
	txns portsrepo.TransactionRepository,
	withdrawals portsrepo.WithdrawalReader,
	directory portssvc.UserDirectory,
) portssvc.WalletSvcFacade {
	return &walletService{
		kind:        kind,
		accounts:    accounts,
		txns:        txns,
		withdrawals: withdrawals,
		directory:   directory,
		maxAttempts: defaultMaxAttempts,
	}
}

var _ portssvc.WalletSvcFacade = (*walletService)(nil)

// EnsureAccount fetches or lazily creates the caller's account. The account
// number is the normalized form of the owner's phone number; normalization
// happens here, at write time, so lookups never need to guess.
func (s *walletService) EnsureAccount(ctx context.Context, userID string, phone string) (*domain.Account, error) {
	if _, err := s.directory.Resolve(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to verify user %s: %w", userID, err)
	}

	accountNumber := accountnum.Normalize(phone)
	if accountNumber == "" {
		return nil, fmt.Errorf("%w: phone number required to derive account number", apperrors.ErrValidation)
	}

	return s.accounts.EnsureAccount(ctx, s.kind, userID, accountNumber)
}

// Deposit credits an existing account. Deposits do not lazily create
// accounts; crediting an absent account is ErrAccountNotFound.
func (s *walletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	return runWithRetry(ctx, logger, s.maxAttempts, "deposit", func(ctx context.Context) (*domain.OperationResult, error) {
		return s.applySingleAccountOp(ctx, userID, amount, domain.Deposit, description)
	})
}

// Withdraw debits the account. The sufficiency check gates on the available
// balance (raw balance minus pending payout requests), the same figure that
// gates transfers, so a pending payout can never be spent twice.
func (s *walletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	return runWithRetry(ctx, logger, s.maxAttempts, "withdraw", func(ctx context.Context) (*domain.OperationResult, error) {
		return s.applySingleAccountOp(ctx, userID, amount, domain.Withdraw, description)
	})
}

// applySingleAccountOp is the shared unit of work for deposit and withdraw:
// lock the account row, validate, write the new balance and append the log
// record, then commit.
func (s *walletService) applySingleAccountOp(ctx context.Context, userID string, amount decimal.Decimal, txnType domain.TransactionType, description string) (*domain.OperationResult, error) {
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

	if txnType == domain.Withdraw {
		pending, err := s.withdrawals.SumPendingInTx(ctx, tx, s.kind, userID)
		if err != nil {
			return nil, err
		}
		if account.Balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientBalance, account.Balance, amount)
		}
		if account.Balance.Sub(pending).LessThan(amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s", apperrors.ErrInsufficientAvailableBalance, account.Balance.Sub(pending), amount)
		}
	}

	now := time.Now().UTC()
	delta := txnType.Delta(amount)
	balanceAfter := account.Balance.Add(delta)

	if err := s.accounts.ApplyBalanceDeltasInTx(ctx, tx, s.kind, map[string]decimal.Decimal{userID: delta}, now); err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        userID,
		Kind:          s.kind,
		Type:          txnType,
		Amount:        amount,
		BalanceBefore: account.Balance,
		BalanceAfter:  balanceAfter,
		Description:   description,
		CreatedAt:     now,
	}
	if err := s.txns.AppendTransactionInTx(ctx, tx, txn); err != nil {
		return nil, err
	}

	earned, withdrawn := decimal.Zero, decimal.Zero
	if txnType == domain.Deposit {
		earned = amount
	} else {
		withdrawn = amount
	}
	if err := s.accounts.AddCountersInTx(ctx, tx, s.kind, userID, earned, withdrawn, now); err != nil {
		return nil, err
	}

	if err := s.accounts.Commit(ctx, tx); err != nil {
		return nil, err
	}

	account.Balance = balanceAfter
	account.TotalEarned = account.TotalEarned.Add(earned)
	account.TotalWithdrawn = account.TotalWithdrawn.Add(withdrawn)
	account.UpdatedAt = now
	return &domain.OperationResult{Account: account, Transaction: txn}, nil
}

// Transfer moves funds between two accounts atomically. Both rows are
// locked in ascending user-id order regardless of direction, so opposing
// transfers between the same pair cannot deadlock.
func (s *walletService) Transfer(ctx context.Context, fromUserID string, toAccountNumber string, amount decimal.Decimal, description string) (*domain.TransferResult, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	receiver, err := s.accounts.FindAccountByNumberCompat(ctx, s.kind, toAccountNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account number %s", apperrors.ErrReceiverNotFound, toAccountNumber)
		}
		return nil, err
	}
	if receiver.UserID == fromUserID {
		return nil, fmt.Errorf("%w: account number %s resolves to the sender", apperrors.ErrSelfTransfer, toAccountNumber)
	}

	return runWithRetry(ctx, logger, s.maxAttempts, "transfer", func(ctx context.Context) (*domain.TransferResult, error) {
		return s.applyTransfer(ctx, fromUserID, receiver.UserID, amount, description)
	})
}

func (s *walletService) applyTransfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, description string) (*domain.TransferResult, error) {
	tx, err := s.accounts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.accounts.Rollback(ctx, tx)

	locked, err := s.accounts.LockAccountsForUpdate(ctx, tx, s.kind, []string{fromUserID, toUserID})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotFound, fromUserID)
		}
		return nil, err
	}
	sender := locked[fromUserID]
	receiver := locked[toUserID]

	pending, err := s.withdrawals.SumPendingInTx(ctx, tx, s.kind, fromUserID)
	if err != nil {
		return nil, err
	}
	available := sender.Balance.Sub(pending)
	if available.LessThan(amount) {
		return nil, fmt.Errorf("%w: available %s, requested %s", apperrors.ErrInsufficientAvailableBalance, available, amount)
	}

	now := time.Now().UTC()
	deltas := map[string]decimal.Decimal{
		fromUserID: amount.Neg(),
		toUserID:   amount,
	}
	if err := s.accounts.ApplyBalanceDeltasInTx(ctx, tx, s.kind, deltas, now); err != nil {
		return nil, err
	}

	outTxn := domain.Transaction{
		TransactionID:        uuid.NewString(),
		UserID:               fromUserID,
		Kind:                 s.kind,
		Type:                 domain.TransferOut,
		Amount:               amount,
		BalanceBefore:        sender.Balance,
		BalanceAfter:         sender.Balance.Sub(amount),
		RelatedUserID:        &receiver.UserID,
		RelatedAccountNumber: &receiver.AccountNumber,
		Description:          description,
		CreatedAt:            now,
	}
	inTxn := domain.Transaction{
		TransactionID:        uuid.NewString(),
		UserID:               toUserID,
		Kind:                 s.kind,
		Type:                 domain.TransferIn,
		Amount:               amount,
		BalanceBefore:        receiver.Balance,
		BalanceAfter:         receiver.Balance.Add(amount),
		RelatedUserID:        &sender.UserID,
		RelatedAccountNumber: &sender.AccountNumber,
		Description:          description,
		CreatedAt:            now,
	}
	if err := s.txns.AppendTransactionInTx(ctx, tx, outTxn); err != nil {
		return nil, err
	}
	if err := s.txns.AppendTransactionInTx(ctx, tx, inTxn); err != nil {
		return nil, err
	}

	if err := s.accounts.Commit(ctx, tx); err != nil {
		return nil, err
	}

	sender.Balance = outTxn.BalanceAfter
	sender.UpdatedAt = now
	receiver.Balance = inTxn.BalanceAfter
	receiver.UpdatedAt = now
	return &domain.TransferResult{
		FromAccount:    sender,
		ToAccount:      receiver,
		OutTransaction: outTxn,
		InTransaction:  inTxn,
	}, nil
}

// AvailableBalance returns the raw balance, the pending payout sum and
// their difference. The difference is deliberately unclamped; display
// layers clamp at zero, arithmetic consumers get the true value.
func (s *walletService) AvailableBalance(ctx context.Context, userID string) (*domain.BalanceDetails, error) {
	account, err := s.accounts.FindAccount(ctx, s.kind, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotFound, userID)
		}
		return nil, err
	}

	pending, err := s.withdrawals.SumPending(ctx, s.kind, userID)
	if err != nil {
		return nil, err
	}

	return &domain.BalanceDetails{
		UserID:             userID,
		Kind:               s.kind,
		Balance:            account.Balance,
		PendingWithdrawals: pending,
		Available:          account.Balance.Sub(pending),
	}, nil
}

// ListTransactions returns the account's history, newest first.
func (s *walletService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	return s.txns.ListTransactions(ctx, s.kind, userID, limit, offset)
}

// GetTransactionDetail resolves counterparty identity for one log entry.
// The sender/receiver assignment follows TransactionType.Counterparty.
// Identity enrichment degrades gracefully: a directory miss leaves the name
// empty rather than failing the read.
func (s *walletService) GetTransactionDetail(ctx context.Context, userID string, transactionID string) (*domain.TransactionDetail, error) {
	txn, err := s.txns.FindTransaction(ctx, s.kind, userID, transactionID)
	if err != nil {
		return nil, err
	}

	owner := s.partyInfo(ctx, userID, s.ownerAccountNumber(ctx, userID))

	var related *domain.PartyInfo
	if txn.RelatedUserID != nil {
		number := ""
		if txn.RelatedAccountNumber != nil {
			number = *txn.RelatedAccountNumber
		}
		related = s.partyInfo(ctx, *txn.RelatedUserID, number)
	}

	detail := &domain.TransactionDetail{Transaction: *txn}
	switch txn.Type.Counterparty() {
	case domain.RoleReceiver:
		detail.Sender = owner
		detail.Receiver = related
	case domain.RoleSender:
		detail.Sender = related
		detail.Receiver = owner
	case domain.RoleNone:
		if txn.Type.IsCredit() {
			detail.Receiver = owner
		} else {
			detail.Sender = owner
		}
	}
	return detail, nil
}

func (s *walletService) ownerAccountNumber(ctx context.Context, userID string) string {
	account, err := s.accounts.FindAccount(ctx, s.kind, userID)
	if err != nil {
		return ""
	}
	return account.AccountNumber
}

func (s *walletService) partyInfo(ctx context.Context, userID, accountNumber string) *domain.PartyInfo {
	info := &domain.PartyInfo{UserID: userID, AccountNumber: accountNumber}
	identity, err := s.directory.Resolve(ctx, userID)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to resolve counterparty identity",
			slog.String("party_user_id", userID), slog.String("error", err.Error()))
		return info
	}
	info.Name = identity.Name
	return info
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount)
	}
	return nil
}
