package dto

import (
	"time"

	"github.com/bizlink/walletd/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateWithdrawalRequest opens a payout request against the caller's
// available balance. The payout coordinates are free-form routing data for
// the manual disbursement; the engine never interprets them.
type CreateWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Method        string          `json:"method" binding:"omitempty,oneof=BANK_TRANSFER MOBILE_MONEY"`
	BankName      string          `json:"bankName"`
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber"`
	Reference     string          `json:"reference"`
}

// ToPayoutDetails maps the request's routing fields to the domain type.
func (r CreateWithdrawalRequest) ToPayoutDetails() domain.PayoutDetails {
	return domain.PayoutDetails{
		Method:        r.Method,
		BankName:      r.BankName,
		AccountName:   r.AccountName,
		AccountNumber: r.AccountNumber,
		Reference:     r.Reference,
	}
}

// ApproveWithdrawalRequest resolves a pending request as approved.
// Amount is optional; when set it may be below the requested amount for a
// partial approval.
type ApproveWithdrawalRequest struct {
	Amount     *decimal.Decimal `json:"amount"`
	AdminNote  string           `json:"adminNote"`
	ReceiptRef string           `json:"receiptRef"`
}

// RejectWithdrawalRequest resolves a pending request as rejected.
type RejectWithdrawalRequest struct {
	AdminNote string `json:"adminNote" binding:"required"`
}

// PayoutDetailsResponse mirrors domain.PayoutDetails.
type PayoutDetailsResponse struct {
	Method        string `json:"method,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	Reference     string `json:"reference,omitempty"`
	ReceiptRef    string `json:"receiptRef,omitempty"`
}

// WithdrawalResponse defines the data returned for a payout request.
type WithdrawalResponse struct {
	WithdrawalID    string                `json:"withdrawalID"`
	UserID          string                `json:"userID"`
	Kind            string                `json:"kind"`
	RequestedAmount decimal.Decimal       `json:"requestedAmount"`
	ApprovedAmount  decimal.Decimal       `json:"approvedAmount"`
	Status          string                `json:"status"`
	Payout          PayoutDetailsResponse `json:"payout"`
	AdminNote       string                `json:"adminNote,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// ToWithdrawalResponse converts a domain.Withdrawal to WithdrawalResponse DTO
func ToWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		WithdrawalID:    w.WithdrawalID,
		UserID:          w.UserID,
		Kind:            string(w.Kind),
		RequestedAmount: w.RequestedAmount,
		ApprovedAmount:  w.ApprovedAmount,
		Status:          string(w.Status),
		Payout: PayoutDetailsResponse{
			Method:        w.Payout.Method,
			BankName:      w.Payout.BankName,
			AccountName:   w.Payout.AccountName,
			AccountNumber: w.Payout.AccountNumber,
			Reference:     w.Payout.Reference,
			ReceiptRef:    w.Payout.ReceiptRef,
		},
		AdminNote: w.AdminNote,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// WithdrawalListingResponse is a WithdrawalResponse with the owner's
// resolved identity for admin screens.
type WithdrawalListingResponse struct {
	WithdrawalResponse
	Owner *PartyResponse `json:"owner,omitempty"`
}

// ToListWithdrawalResponse converts admin listings to DTOs
func ToListWithdrawalResponse(listings []domain.WithdrawalListing) []WithdrawalListingResponse {
	res := make([]WithdrawalListingResponse, len(listings))
	for i := range listings {
		res[i] = WithdrawalListingResponse{
			WithdrawalResponse: ToWithdrawalResponse(&listings[i].Withdrawal),
			Owner:              toPartyResponse(listings[i].Owner),
		}
	}
	return res
}

// ListWithdrawalsParams defines query parameters for admin listings.
type ListWithdrawalsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	UserID string `form:"userID"`
	Search string `form:"search"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset,default=0" binding:"omitempty,min=0"`
}

// ListWithdrawalsResponse wraps the admin listing page.
type ListWithdrawalsResponse struct {
	Withdrawals []WithdrawalListingResponse `json:"withdrawals"`
}

// KindSummaryResponse aggregates one account kind for the admin summary.
type KindSummaryResponse struct {
	Kind           string          `json:"kind"`
	AccountCount   int64           `json:"accountCount"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
}

// SummaryResponse defines the admin wallet summary payload.
type SummaryResponse struct {
	Kinds []KindSummaryResponse `json:"kinds"`
}

// ToSummaryResponse converts a domain.WalletSummary to SummaryResponse DTO
func ToSummaryResponse(s *domain.WalletSummary) SummaryResponse {
	kinds := make([]KindSummaryResponse, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = KindSummaryResponse{
			Kind:           string(k.Kind),
			AccountCount:   k.AccountCount,
			TotalBalance:   k.TotalBalance,
			TotalPending:   k.TotalPending,
			TotalWithdrawn: k.TotalWithdrawn,
		}
	}
	return SummaryResponse{Kinds: kinds}
}
