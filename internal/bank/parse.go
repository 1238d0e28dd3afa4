package bank

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePIN converts form input to a pin. Surrounding spaces are ignored;
// anything that is not a non-negative integer is ErrInvalidPIN.
func ParsePIN(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrInvalidPIN
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrInvalidPIN
	}
	return n, nil
}

// Amounts are bounded to the range of a float64: at most 309 integer digits
// and no exponent beyond ±308.
const (
	maxAmountExp    = 308
	maxAmountDigits = 309
)

// ParseAmount converts form input to an amount. A blank field is zero, which
// callers reject as non-positive; non-numeric or out-of-range input is
// ErrInvalidAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	exp := int(d.Exponent())
	digits := d.NumDigits()
	if exp > maxAmountExp || exp < -maxAmountExp || digits > maxAmountDigits || digits+exp > maxAmountDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseLoanAmount is ParseAmount floored to a whole number.
func ParseLoanAmount(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Floor(), nil
}
