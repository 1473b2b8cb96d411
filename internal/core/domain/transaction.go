package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates the kind of balance-affecting event.
type TransactionType string

const (
	Deposit     TransactionType = "DEPOSIT"
	Withdraw    TransactionType = "WITHDRAW"
	TransferIn  TransactionType = "TRANSFER_IN"
	TransferOut TransactionType = "TRANSFER_OUT"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case Deposit, Withdraw, TransferIn, TransferOut:
		return true
	}
	return false
}

// IsCredit reports whether the type increases the owning account's balance.
func (t TransactionType) IsCredit() bool {
	return t == Deposit || t == TransferIn
}

// Delta returns the signed balance effect of a transaction of this type
// for the given (positive) amount.
func (t TransactionType) Delta(amount decimal.Decimal) decimal.Decimal {
	if t.IsCredit() {
		return amount
	}
	return amount.Neg()
}

// CounterpartyRole describes which side of the event the related party is on.
type CounterpartyRole int

const (
	// RoleNone means the type has no counterparty (deposit on the credit
	// side, withdraw on the debit side).
	RoleNone CounterpartyRole = iota
	// RoleSender means the related party sent the funds (transfer_in).
	RoleSender
	// RoleReceiver means the related party received the funds (transfer_out).
	RoleReceiver
)

// Counterparty returns the role of the related party for this type.
// The mapping is fixed: transfer_out -> receiver, transfer_in -> sender,
// deposit and withdraw have none.
func (t TransactionType) Counterparty() CounterpartyRole {
	switch t {
	case TransferOut:
		return RoleReceiver
	case TransferIn:
		return RoleSender
	case Deposit, Withdraw:
		return RoleNone
	}
	return RoleNone
}

// Transaction is one immutable entry in the wallet's audit trail.
// BalanceBefore and BalanceAfter are snapshots taken at commit time;
// BalanceAfter always equals BalanceBefore plus Type.Delta(Amount).
type Transaction struct {
	TransactionID string          `json:"transactionID"`
	UserID        string          `json:"userID"` // Owning account.
	Kind          AccountKind     `json:"kind"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"` // Always positive.
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`

	// Counterparty of a transfer; nil for deposits and withdrawals.
	RelatedUserID        *string `json:"relatedUserID,omitempty"`
	RelatedAccountNumber *string `json:"relatedAccountNumber,omitempty"`

	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TransactionDetail is a Transaction enriched with resolved counterparty
// identity for display. Sender/Receiver may be nil when the type has no
// such party, or when identity resolution degraded.
type TransactionDetail struct {
	Transaction
	Sender   *PartyInfo `json:"sender,omitempty"`
	Receiver *PartyInfo `json:"receiver,omitempty"`
}

// PartyInfo identifies one side of a transaction for display purposes.
type PartyInfo struct {
	UserID        string `json:"userID"`
	Name          string `json:"name,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
}
