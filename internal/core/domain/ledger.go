package domain

// OperationResult is what a single-account ledger mutation returns: the
// account with its post-commit balance and the transaction that recorded it.
type OperationResult struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}

// TransferResult captures both sides of a committed transfer. The two
// transactions carry equal amounts and mirrored counterparty references.
type TransferResult struct {
	FromAccount    Account     `json:"fromAccount"`
	ToAccount      Account     `json:"toAccount"`
	OutTransaction Transaction `json:"outTransaction"`
	InTransaction  Transaction `json:"inTransaction"`
}
