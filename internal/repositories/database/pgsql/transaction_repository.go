package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a new repository for the append-only
// transaction log.
func NewTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, kind, user_id, txn_type, amount, balance_before, balance_after, related_user_id, related_account_number, description, created_at`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	var relatedUserID, relatedAccountNumber, description sql.NullString
	err := row.Scan(
		&txn.TransactionID,
		&txn.Kind,
		&txn.UserID,
		&txn.Type,
		&txn.Amount,
		&txn.BalanceBefore,
		&txn.BalanceAfter,
		&relatedUserID,
		&relatedAccountNumber,
		&description,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if relatedUserID.Valid {
		txn.RelatedUserID = &relatedUserID.String
	}
	if relatedAccountNumber.Valid {
		txn.RelatedAccountNumber = &relatedAccountNumber.String
	}
	txn.Description = description.String
	return &txn, nil
}

// AppendTransactionInTx inserts one immutable log record inside the unit of
// work that performed the balance mutation it documents. The table exposes
// no update or delete path.
func (r *PgxTransactionRepository) AppendTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	query := `
		INSERT INTO wallet_transactions (transaction_id, kind, user_id, txn_type, amount, balance_before, balance_after, related_user_id, related_account_number, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`

	var description sql.NullString
	if txn.Description != "" {
		description = sql.NullString{String: txn.Description, Valid: true}
	}

	_, err := tx.Exec(ctx, query,
		txn.TransactionID,
		txn.Kind,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.RelatedUserID,
		txn.RelatedAccountNumber,
		description,
		txn.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s already recorded", apperrors.ErrDuplicate, txn.TransactionID)
		}
		return mapConflictErr(fmt.Errorf("failed to append transaction %s: %w", txn.TransactionID, err))
	}
	return nil
}

// ListTransactions retrieves the account's history, newest first.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, kind domain.AccountKind, userID string, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE kind = $1 AND user_id = $2
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $3 OFFSET $4;
	`

	rows, err := r.Pool.Query(ctx, query, kind, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row for user %s: %w", userID, err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows for user %s: %w", userID, err)
	}

	return transactions, nil
}

// FindTransaction retrieves one transaction scoped to its owning account, so
// a caller cannot read another account's history by guessing ids.
func (r *PgxTransactionRepository) FindTransaction(ctx context.Context, kind domain.AccountKind, userID string, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE kind = $1 AND user_id = $2 AND transaction_id = $3;
	`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, kind, userID, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}
