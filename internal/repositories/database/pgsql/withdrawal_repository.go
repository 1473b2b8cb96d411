package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bizlink/walletd/internal/apperrors"
	"github.com/bizlink/walletd/internal/core/domain"
	portsrepo "github.com/bizlink/walletd/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxWithdrawalRepository struct {
	BaseRepository
}

// NewWithdrawalRepository creates a new repository for payout request data.
func NewWithdrawalRepository(pool *pgxpool.Pool) portsrepo.WithdrawalRepository {
	return &PgxWithdrawalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WithdrawalRepository = (*PgxWithdrawalRepository)(nil)

const withdrawalColumns = `withdrawal_id, kind, user_id, requested_amount, approved_amount, status, payout_method, bank_name, account_name, account_number, reference, receipt_ref, admin_note, created_at, updated_at`

func scanWithdrawal(row rowScanner) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var method, bankName, accountName, accountNumber, reference, receiptRef, adminNote sql.NullString
	err := row.Scan(
		&w.WithdrawalID,
		&w.Kind,
		&w.UserID,
		&w.RequestedAmount,
		&w.ApprovedAmount,
		&w.Status,
		&method,
		&bankName,
		&accountName,
		&accountNumber,
		&reference,
		&receiptRef,
		&adminNote,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Payout = domain.PayoutDetails{
		Method:        method.String,
		BankName:      bankName.String,
		AccountName:   accountName.String,
		AccountNumber: accountNumber.String,
		Reference:     reference.String,
		ReceiptRef:    receiptRef.String,
	}
	w.AdminNote = adminNote.String
	return &w, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// SaveWithdrawalInTx inserts a new pending request inside the unit of work
// that validated the available balance it reserves against.
func (r *PgxWithdrawalRepository) SaveWithdrawalInTx(ctx context.Context, tx pgx.Tx, w domain.Withdrawal) error {
	query := `
		INSERT INTO withdrawal_requests (withdrawal_id, kind, user_id, requested_amount, approved_amount, status, payout_method, bank_name, account_name, account_number, reference, receipt_ref, admin_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, query,
		w.WithdrawalID,
		w.Kind,
		w.UserID,
		w.RequestedAmount,
		w.ApprovedAmount,
		w.Status,
		nullable(w.Payout.Method),
		nullable(w.Payout.BankName),
		nullable(w.Payout.AccountName),
		nullable(w.Payout.AccountNumber),
		nullable(w.Payout.Reference),
		nullable(w.Payout.ReceiptRef),
		nullable(w.AdminNote),
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: withdrawal %s already exists", apperrors.ErrDuplicate, w.WithdrawalID)
		}
		return mapConflictErr(fmt.Errorf("failed to save withdrawal %s: %w", w.WithdrawalID, err))
	}
	return nil
}

// FindWithdrawal retrieves one request by id.
func (r *PgxWithdrawalRepository) FindWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE withdrawal_id = $1;`

	w, err := scanWithdrawal(r.Pool.QueryRow(ctx, query, withdrawalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find withdrawal %s: %w", withdrawalID, err)
	}
	return w, nil
}

// LockWithdrawalForUpdate fetches the request under an exclusive row lock so
// concurrent approve/reject attempts on the same request serialize; the
// loser of the race then observes the terminal status.
func (r *PgxWithdrawalRepository) LockWithdrawalForUpdate(ctx context.Context, tx pgx.Tx, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE withdrawal_id = $1 FOR UPDATE;`

	w, err := scanWithdrawal(tx.QueryRow(ctx, query, withdrawalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapConflictErr(fmt.Errorf("failed to lock withdrawal %s: %w", withdrawalID, err))
	}
	return w, nil
}

// ResolveWithdrawalInTx writes the terminal status. The guard on the current
// status makes the transition single-shot even if a caller skipped the lock.
func (r *PgxWithdrawalRepository) ResolveWithdrawalInTx(ctx context.Context, tx pgx.Tx, withdrawalID string, status domain.WithdrawalStatus, approvedAmount decimal.Decimal, adminNote, receiptRef string, now time.Time) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $2, approved_amount = $3, admin_note = $4, receipt_ref = $5, updated_at = $6
		WHERE withdrawal_id = $1 AND status = $7;
	`
	ct, err := tx.Exec(ctx, query, withdrawalID, status, approvedAmount, nullable(adminNote), nullable(receiptRef), now, domain.WithdrawalPending)
	if err != nil {
		return mapConflictErr(fmt.Errorf("failed to resolve withdrawal %s: %w", withdrawalID, err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: withdrawal %s", apperrors.ErrAlreadyProcessed, withdrawalID)
	}
	return nil
}

// SumPending returns the total amount reserved by pending requests.
func (r *PgxWithdrawalRepository) SumPending(ctx context.Context, kind domain.AccountKind, userID string) (decimal.Decimal, error) {
	return r.sumPending(ctx, r.Pool, kind, userID)
}

// SumPendingInTx is SumPending evaluated inside an open unit of work.
func (r *PgxWithdrawalRepository) SumPendingInTx(ctx context.Context, tx pgx.Tx, kind domain.AccountKind, userID string) (decimal.Decimal, error) {
	return r.sumPending(ctx, tx, kind, userID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PgxWithdrawalRepository) sumPending(ctx context.Context, q querier, kind domain.AccountKind, userID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(requested_amount), 0)
		FROM withdrawal_requests
		WHERE kind = $1 AND user_id = $2 AND status = $3;
	`
	var sum decimal.Decimal
	if err := q.QueryRow(ctx, query, kind, userID, domain.WithdrawalPending).Scan(&sum); err != nil {
		return decimal.Zero, mapConflictErr(fmt.Errorf("failed to sum pending withdrawals for user %s: %w", userID, err))
	}
	return sum, nil
}

// withdrawalListColumns is withdrawalColumns qualified for the listing join.
const withdrawalListColumns = `w.withdrawal_id, w.kind, w.user_id, w.requested_amount, w.approved_amount, w.status, w.payout_method, w.bank_name, w.account_name, w.account_number, w.reference, w.receipt_ref, w.admin_note, w.created_at, w.updated_at`

// ListWithdrawals retrieves requests matching the filter, newest first.
// Search matches the owner's directory identity (name, phone) alongside the
// user id and payout coordinates; the users join is LEFT so requests whose
// owner is missing from the directory still list by their other fields.
func (r *PgxWithdrawalRepository) ListWithdrawals(ctx context.Context, filter portsrepo.WithdrawalFilter) ([]domain.Withdrawal, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + withdrawalListColumns + `
		FROM withdrawal_requests w
		LEFT JOIN users u ON u.user_id = w.user_id
		WHERE w.kind = $1`
	args := []any{filter.Kind}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND w.status = $%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND w.user_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (w.user_id ILIKE $%d OR w.account_name ILIKE $%d OR w.bank_name ILIKE $%d OR w.reference ILIKE $%d OR u.name ILIKE $%d OR u.phone ILIKE $%d)", n, n, n, n, n, n)
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY w.created_at DESC, w.withdrawal_id DESC LIMIT $%d OFFSET $%d;", len(args)-1, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	withdrawals := []domain.Withdrawal{}
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal row: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}

	return withdrawals, nil
}
