package services

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/shopspring/decimal"
)

// WalletSvcFacade is the ledger engine surface consumed by request handlers.
// One instance serves one account kind; the agent commission wallet is a
// second instance of the same implementation.
type WalletSvcFacade interface {
	// EnsureAccount fetches or lazily creates the caller's account, deriving
	// the account number from the supplied phone number.
	EnsureAccount(ctx context.Context, userID string, phone string) (*domain.Account, error)

	// Deposit credits an existing account. It does not lazily create
	// accounts; depositing to an absent account is ErrAccountNotFound.
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error)

	// Withdraw debits the account after an available-balance check.
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string) (*domain.OperationResult, error)

	// Transfer moves funds to the account addressed by toAccountNumber,
	// atomically writing both balances and both mirrored transactions.
	Transfer(ctx context.Context, fromUserID string, toAccountNumber string, amount decimal.Decimal, description string) (*domain.TransferResult, error)

	// AvailableBalance returns the raw balance, the pending-withdrawal sum
	// and their unclamped difference.
	AvailableBalance(ctx context.Context, userID string) (*domain.BalanceDetails, error)

	// ListTransactions returns the account's history, newest first.
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)

	// GetTransactionDetail resolves counterparty identity for one entry.
	GetTransactionDetail(ctx context.Context, userID string, transactionID string) (*domain.TransactionDetail, error)
}
