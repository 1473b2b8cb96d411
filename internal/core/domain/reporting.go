package domain

import "github.com/shopspring/decimal"

// KindSummary aggregates all accounts of one kind for admin reporting.
type KindSummary struct {
	Kind           AccountKind     `json:"kind"`
	AccountCount   int64           `json:"accountCount"`
	TotalBalance   decimal.Decimal `json:"totalBalance"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
}

// WalletSummary is the full reporting façade output.
type WalletSummary struct {
	Kinds []KindSummary `json:"kinds"`
}
