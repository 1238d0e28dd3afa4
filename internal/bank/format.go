package bank

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// FormatMoney rounds v to two decimals, groups digits the way locale does and
// appends the ISO currency code. An unknown currency code is dropped.
func FormatMoney(v decimal.Decimal, locale, cur string) string {
	p := message.NewPrinter(localeTag(locale))
	num := p.Sprint(number.Decimal(Round2(v).InexactFloat64(), number.Scale(2)))
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return num
	}
	return num + " " + unit.String()
}

// FormatMovementDate renders t relative to now for the last week and as a
// numeric date in the locale's field order otherwise. Future dates are Today.
func FormatMovementDate(t, now time.Time, locale string) string {
	days := int(math.Round(max(now.Sub(t).Hours(), 0) / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days)
	}
	tag := localeTag(locale)
	base, _ := tag.Base()
	region, _ := tag.Region()
	layout := "02/01/2006"
	if base.String() == "en" && region.String() == "US" {
		layout = "01/02/2006"
	}
	return t.UTC().Format(layout)
}
