package bank

import (
	"time"

	"github.com/shopspring/decimal"

	"bankist.app/internal/ids"
)

type seedMovement struct {
	amount string
	date   string
}

// DemoAccounts returns the two accounts the demo ships with, usernames
// already derived ("js" and "jd").
func DemoAccounts() []Account {
	accounts := []Account{
		{
			Owner:        "Jonas Schmedtmann",
			PIN:          1111,
			InterestRate: decimal.RequireFromString("1.2"),
			Currency:     "EUR",
			Locale:       "pt-PT",
			Movements: seedMovements([]seedMovement{
				{"200", "2019-11-18T21:31:17.178Z"},
				{"455.23", "2019-12-23T07:42:02.383Z"},
				{"-306.5", "2020-01-28T09:15:04.904Z"},
				{"25000", "2020-04-01T10:17:24.185Z"},
				{"-642.21", "2020-05-08T14:11:59.604Z"},
				{"-133.9", "2020-05-27T17:01:17.194Z"},
				{"79.97", "2020-07-11T23:36:17.929Z"},
				{"1300", "2020-07-12T10:51:36.790Z"},
			}),
		},
		{
			Owner:        "Jessica Davis",
			PIN:          2222,
			InterestRate: decimal.RequireFromString("1.5"),
			Currency:     "USD",
			Locale:       "en-US",
			Movements: seedMovements([]seedMovement{
				{"5000", "2019-11-01T13:15:33.035Z"},
				{"3400", "2019-11-30T09:48:16.867Z"},
				{"-150", "2019-12-25T06:04:23.907Z"},
				{"-790", "2020-01-25T14:18:46.235Z"},
				{"-3210", "2020-02-05T16:33:06.386Z"},
				{"-1000", "2020-04-10T14:43:26.374Z"},
				{"8500", "2020-06-25T18:49:59.371Z"},
				{"-30", "2020-07-26T12:01:20.894Z"},
			}),
		},
	}
	AssignUsernames(accounts)
	return accounts
}

func seedMovements(in []seedMovement) []Movement {
	out := make([]Movement, 0, len(in))
	for _, m := range in {
		at, err := time.Parse(time.RFC3339Nano, m.date)
		if err != nil {
			panic(err)
		}
		out = append(out, Movement{
			ID:     ids.NewAt(at),
			Amount: decimal.RequireFromString(m.amount),
			Date:   at,
		})
	}
	return out
}
