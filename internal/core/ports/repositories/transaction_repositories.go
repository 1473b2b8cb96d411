package repositories

import (
	"context"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionWriter defines the single write operation of the append-only log.
type TransactionWriter interface {
	// AppendTransactionInTx inserts one immutable transaction record. It must
	// run inside the same unit of work as the balance mutation it documents.
	// There are no update or delete operations; the log is write-once.
	AppendTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error
}

// TransactionReader defines read operations over the transaction log.
type TransactionReader interface {
	// ListTransactions retrieves the account's history, newest first.
	ListTransactions(ctx context.Context, kind domain.AccountKind, userID string, limit, offset int) ([]domain.Transaction, error)

	// FindTransaction retrieves one transaction scoped to its owning account.
	FindTransaction(ctx context.Context, kind domain.AccountKind, userID string, transactionID string) (*domain.Transaction, error)
}

// TransactionRepository combines the transaction log interfaces.
type TransactionRepository interface {
	TransactionWriter
	TransactionReader
}
