package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes the two ledger instances sharing this engine.
type AccountKind string

const (
	// KindUser is the customer-facing wallet.
	KindUser AccountKind = "USER"
	// KindAgent is the agent commission wallet.
	KindAgent AccountKind = "AGENT"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	switch k {
	case KindUser, KindAgent:
		return true
	}
	return false
}

// Account is a single user's monetary balance plus its routing identifier.
// There is exactly one account per (userID, kind). The balance is mutated
// only by the ledger engine under a row lock and never goes negative after
// a committed operation.
type Account struct {
	UserID        string          `json:"userID"`
	Kind          AccountKind     `json:"kind"`
	AccountNumber string          `json:"accountNumber"` // Derived from the owner's phone number; unique per kind.
	Balance       decimal.Decimal `json:"balance"`

	// Cumulative counters maintained by the engine. TotalEarned tracks
	// credits, TotalWithdrawn tracks approved payouts and direct withdrawals.
	TotalEarned    decimal.Decimal `json:"totalEarned"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BalanceDetails is the derived view returned by the available-balance query.
// Available is the unclamped arithmetic value: Balance minus the sum of
// pending withdrawal requests. Callers needing a display figure clamp it.
type BalanceDetails struct {
	UserID             string          `json:"userID"`
	Kind               AccountKind     `json:"kind"`
	Balance            decimal.Decimal `json:"balance"`
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"`
	Available          decimal.Decimal `json:"available"`
}
