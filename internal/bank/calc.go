package bank

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Summary is the in/out/interest block shown under the movements.
type Summary struct {
	In       decimal.Decimal `json:"in"`
	Out      decimal.Decimal `json:"out"`
	Interest decimal.Decimal `json:"interest"`
}

// Balance is the sum of all movements.
func Balance(movements []Movement) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.Amount)
	}
	return sum
}

// TotalIn is the sum of all deposits.
func TotalIn(movements []Movement) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		if m.Amount.IsPositive() {
			sum = sum.Add(m.Amount)
		}
	}
	return sum
}

// TotalOut is the absolute sum of all withdrawals.
func TotalOut(movements []Movement) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range movements {
		if m.Amount.IsNegative() {
			sum = sum.Add(m.Amount)
		}
	}
	return sum.Abs()
}

// QualifyingInterest pays rate percent on every deposit, counting only the
// deposits whose own interest is at least 1. The threshold applies per
// deposit, never to the total.
func QualifyingInterest(movements []Movement, rate decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	sum := decimal.Zero
	for _, m := range movements {
		if !m.Amount.IsPositive() {
			continue
		}
		interest := m.Amount.Mul(rate).Div(hundred)
		if interest.GreaterThanOrEqual(one) {
			sum = sum.Add(interest)
		}
	}
	return sum
}

// Summarize computes the summary block for an account's movements.
func Summarize(movements []Movement, rate decimal.Decimal) Summary {
	return Summary{
		In:       TotalIn(movements),
		Out:      TotalOut(movements),
		Interest: QualifyingInterest(movements, rate),
	}
}

// Round2 rounds for display. Stored amounts are never rounded.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
