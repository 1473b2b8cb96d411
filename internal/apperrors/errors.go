package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a non-positive amount was supplied to a ledger operation.
var ErrInvalidAmount = errors.New("amount must be greater than zero")

// ErrAccountNotFound indicates the operation requires a pre-existing wallet account.
var ErrAccountNotFound = errors.New("wallet account not found")

// ErrInsufficientBalance indicates the account's raw balance does not cover the amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrInsufficientAvailableBalance indicates the balance net of pending
// withdrawal requests does not cover the amount.
var ErrInsufficientAvailableBalance = errors.New("insufficient available balance")

// ErrReceiverNotFound indicates a transfer target account number did not resolve.
var ErrReceiverNotFound = errors.New("receiver account not found")

// ErrSelfTransfer indicates sender and resolved receiver are the same account.
var ErrSelfTransfer = errors.New("cannot transfer to own account")

// ErrAlreadyProcessed indicates a withdrawal request was approved or rejected twice.
var ErrAlreadyProcessed = errors.New("withdrawal request already processed")

// ErrTransientConflict indicates the datastore aborted the operation due to
// lock contention (deadlock or serialization failure). Safe to retry.
var ErrTransientConflict = errors.New("transient datastore conflict")
