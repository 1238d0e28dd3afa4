package bank

import (
	"github.com/shopspring/decimal"

	"bankist.app/internal/ids"
)

// Session is the transient record of who is logged in. It refers to the
// account by username and is re-validated against the store on every use, so
// it can never outlive the account. Only Service mutates it.
type Session struct {
	ID string

	username string
	sorted   bool

	// balance of the current account as of the last refresh
	balance      decimal.Decimal
	balanceKnown bool
}

// NewSession returns an empty, logged-out session.
func NewSession() *Session {
	return &Session{ID: ids.New()}
}

// Username is the current account's handle, or "" when logged out.
func (s *Session) Username() string { return s.username }

// Active reports whether an account is logged in.
func (s *Session) Active() bool { return s.username != "" }

// Sorted reports whether movements are shown in ascending amount order.
func (s *Session) Sorted() bool { return s.sorted }

// login switches to username and starts over in chronological order.
func (s *Session) login(username string) {
	s.username = username
	s.sorted = false
	s.balanceKnown = false
}

func (s *Session) clear() {
	s.username = ""
	s.sorted = false
	s.balance = decimal.Zero
	s.balanceKnown = false
}

func (s *Session) cacheBalance(v decimal.Decimal) {
	s.balance = v
	s.balanceKnown = true
}
