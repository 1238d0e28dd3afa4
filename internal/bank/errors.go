package bank

import "errors"

// Business-rule failures. Every operation returning one of these has left the
// store and the session untouched.
var (
	ErrNotFound           = errors.New("account not found")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidPIN         = errors.New("pin must be a non-negative integer")
	ErrInvalidAmount      = errors.New("invalid amount (must be > 0)")
	ErrInvalidCredentials = errors.New("invalid username or pin")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSelfTransfer       = errors.New("cannot transfer to the same account")
	ErrLoanDeclined       = errors.New("loan declined: no movement of at least 10% of the amount")
	ErrNoSession          = errors.New("no active session")
)
