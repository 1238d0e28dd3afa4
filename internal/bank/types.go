// Package bank holds the account model, the ledger calculations and the
// operations a logged-in user can perform.
package bank

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one signed transaction: deposits positive, withdrawals negative.
type Movement struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
)

// Kind reports "deposit" for positive amounts and "withdrawal" otherwise.
func (m Movement) Kind() string {
	if m.Amount.IsPositive() {
		return KindDeposit
	}
	return KindWithdrawal
}

// Account is a customer account. Username is derived from Owner once, when
// the store is seeded.
type Account struct {
	Owner        string          `json:"owner"`
	Username     string          `json:"username"`
	PIN          int             `json:"-"`
	Movements    []Movement      `json:"movements"`
	InterestRate decimal.Decimal `json:"interest_rate"` // percent
	Currency     string          `json:"currency"`
	Locale       string          `json:"locale"`
}

// FirstName is the first word of the owner's name, used for the welcome line.
func (a Account) FirstName() string {
	fields := strings.Fields(a.Owner)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (a Account) clone() Account {
	out := a
	out.Movements = make([]Movement, len(a.Movements))
	copy(out.Movements, a.Movements)
	return out
}

// Entry books one movement on the account identified by Username.
type Entry struct {
	Username string
	Movement Movement
}
