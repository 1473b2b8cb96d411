package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the state of a payout request. A request transitions
// exactly once out of Pending; Approved and Rejected are terminal.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// Valid reports whether s is a known withdrawal status.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the status allows no further transitions.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalApproved || s == WithdrawalRejected
}

// PayoutDetails carries the bank/transfer coordinates supplied with a payout
// request. The ledger arithmetic never reads these; they exist for the
// approval workflow and the eventual manual disbursement.
type PayoutDetails struct {
	Method        string `json:"method,omitempty"` // e.g. BANK_TRANSFER, MOBILE_MONEY
	BankName      string `json:"bankName,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"` // Bank account number or IBAN.
	Reference     string `json:"reference,omitempty"`
	ReceiptRef    string `json:"receiptRef,omitempty"` // Set by the admin on approval.
}

// Withdrawal is a pending request to cash out funds. While Pending, its
// RequestedAmount is subtracted from the account's raw balance to compute
// the available balance, reserving the funds without removing them.
type Withdrawal struct {
	WithdrawalID    string           `json:"withdrawalID"`
	UserID          string           `json:"userID"`
	Kind            AccountKind      `json:"kind"`
	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount  decimal.Decimal  `json:"approvedAmount"` // Zero until approved; may be below RequestedAmount.
	Status          WithdrawalStatus `json:"status"`
	Payout          PayoutDetails    `json:"payout"`
	AdminNote       string           `json:"adminNote,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// WithdrawalListing is a Withdrawal enriched with the owner's resolved
// identity for admin screens. Owner may be nil if resolution degraded.
type WithdrawalListing struct {
	Withdrawal
	Owner *PartyInfo `json:"owner,omitempty"`
}
