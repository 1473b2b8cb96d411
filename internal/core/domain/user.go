package domain

// UserIdentity is the slice of the externally-managed user record the ledger
// needs: existence, a display name and the phone number the account number
// derives from. It is resolved through the UserDirectory port and never
// persisted by this service.
type UserIdentity struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}
