package dto

import (
	"time"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EnsureAccountRequest defines the data needed to open (or fetch) a wallet.
type EnsureAccountRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
}

// DepositRequest defines a credit to the caller's wallet.
type DepositRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// WithdrawRequest defines a direct debit from the caller's wallet.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// TransferRequest defines a wallet-to-wallet transfer. The receiver is
// addressed by account number (their phone number in any common format).
type TransferRequest struct {
	ToAccountNumber string          `json:"toAccountNumber" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Description     string          `json:"description"`
}

// AccountResponse defines the data returned for a wallet account.
// Mirrors domain.Account.
type AccountResponse struct {
	UserID         string          `json:"userID"`
	Kind           string          `json:"kind"`
	AccountNumber  string          `json:"accountNumber"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"totalEarned"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		UserID:         acc.UserID,
		Kind:           string(acc.Kind),
		AccountNumber:  acc.AccountNumber,
		Balance:        acc.Balance,
		TotalEarned:    acc.TotalEarned,
		TotalWithdrawn: acc.TotalWithdrawn,
		CreatedAt:      acc.CreatedAt,
		UpdatedAt:      acc.UpdatedAt,
	}
}

// BalanceResponse defines the data returned for a balance query. Available
// is clamped at zero for display; AvailableRaw carries the arithmetic value.
type BalanceResponse struct {
	UserID             string          `json:"userID"`
	Kind               string          `json:"kind"`
	Balance            decimal.Decimal `json:"balance"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
	Available          decimal.Decimal `json:"available"`
	AvailableRaw       decimal.Decimal `json:"availableRaw"`
}

// ToBalanceResponse converts a domain.BalanceDetails to BalanceResponse DTO
func ToBalanceResponse(d *domain.BalanceDetails) BalanceResponse {
	available := d.Available
	if available.IsNegative() {
		available = decimal.Zero
	}
	return BalanceResponse{
		UserID:             d.UserID,
		Kind:               string(d.Kind),
		Balance:            d.Balance,
		PendingWithdrawals: d.PendingWithdrawals,
		Available:          available,
		AvailableRaw:       d.Available,
	}
}

// TransactionResponse defines the data returned for one ledger entry.
type TransactionResponse struct {
	TransactionID        string          `json:"transactionID"`
	UserID               string          `json:"userID"`
	Type                 string          `json:"type"`
	Amount               decimal.Decimal `json:"amount"`
	BalanceBefore        decimal.Decimal `json:"balanceBefore"`
	BalanceAfter         decimal.Decimal `json:"balanceAfter"`
	RelatedUserID        *string         `json:"relatedUserID,omitempty"`
	RelatedAccountNumber *string         `json:"relatedAccountNumber,omitempty"`
	Description          string          `json:"description,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        txn.TransactionID,
		UserID:               txn.UserID,
		Type:                 string(txn.Type),
		Amount:               txn.Amount,
		BalanceBefore:        txn.BalanceBefore,
		BalanceAfter:         txn.BalanceAfter,
		RelatedUserID:        txn.RelatedUserID,
		RelatedAccountNumber: txn.RelatedAccountNumber,
		Description:          txn.Description,
		CreatedAt:            txn.CreatedAt,
	}
}

// ToListTransactionResponse converts a slice of domain.Transaction to DTOs
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// PartyResponse identifies one side of a transfer for display.
type PartyResponse struct {
	UserID        string `json:"userID"`
	Name          string `json:"name,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
}

func toPartyResponse(p *domain.PartyInfo) *PartyResponse {
	if p == nil {
		return nil
	}
	return &PartyResponse{UserID: p.UserID, Name: p.Name, AccountNumber: p.AccountNumber}
}

// TransactionDetailResponse is a TransactionResponse with resolved parties.
type TransactionDetailResponse struct {
	TransactionResponse
	Sender   *PartyResponse `json:"sender,omitempty"`
	Receiver *PartyResponse `json:"receiver,omitempty"`
}

// ToTransactionDetailResponse converts a domain.TransactionDetail to its DTO
func ToTransactionDetailResponse(d *domain.TransactionDetail) TransactionDetailResponse {
	return TransactionDetailResponse{
		TransactionResponse: ToTransactionResponse(&d.Transaction),
		Sender:              toPartyResponse(d.Sender),
		Receiver:            toPartyResponse(d.Receiver),
	}
}

// OperationResponse defines the data returned by deposit and withdraw.
type OperationResponse struct {
	Account     AccountResponse     `json:"account"`
	Transaction TransactionResponse `json:"transaction"`
}

// ToOperationResponse converts a domain.OperationResult to OperationResponse DTO
func ToOperationResponse(r *domain.OperationResult) OperationResponse {
	return OperationResponse{
		Account:     ToAccountResponse(&r.Account),
		Transaction: ToTransactionResponse(&r.Transaction),
	}
}

// TransferResponse defines the data returned by a transfer. Only the
// sender's side of the account pair is exposed to the caller.
type TransferResponse struct {
	Account     AccountResponse     `json:"account"`
	Transaction TransactionResponse `json:"transaction"`
}

// ToTransferResponse converts a domain.TransferResult to TransferResponse DTO
func ToTransferResponse(r *domain.TransferResult) TransferResponse {
	return TransferResponse{
		Account:     ToAccountResponse(&r.FromAccount),
		Transaction: ToTransactionResponse(&r.OutTransaction),
	}
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit  int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}

// ListTransactionsResponse wraps the transaction history page.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}
