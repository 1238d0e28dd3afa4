package bank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePIN(t *testing.T) {
	pin, err := ParsePIN("1111")
	require.NoError(t, err)
	assert.Equal(t, 1111, pin)

	pin, err = ParsePIN("\t0042 ")
	require.NoError(t, err)
	assert.Equal(t, 42, pin)

	for _, raw := range []string{"", "  ", "12a", "-1", "1.5", "1e3"} {
		_, err := ParsePIN(raw)
		assert.ErrorIs(t, err, ErrInvalidPIN, "ParsePIN(%q)", raw)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"":       "0",
		"100":    "100",
		" 12.5 ": "12.5",
		"-3":     "-3",
		"0.01":   "0.01",
		"1e3":    "1000",
	}
	for raw, want := range cases {
		got, err := ParseAmount(raw)
		require.NoError(t, err, "ParseAmount(%q)", raw)
		assertDecimal(t, want, got)
	}

	_, err := ParseAmount("12,50")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseAmountRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{
		"1e999",
		"1e20000000",
		"-1e20000000",
		"1e-20000000",
		"1e309",
		"0.1e-400",
		strings.Repeat("9", 310),
	} {
		_, err := ParseAmount(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, "ParseAmount(%q)", raw)
		_, err = ParseLoanAmount(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, "ParseLoanAmount(%q)", raw)
	}

	for _, raw := range []string{"1e300", "1e-300", strings.Repeat("9", 309)} {
		_, err := ParseAmount(raw)
		assert.NoError(t, err, "ParseAmount(%q)", raw)
	}
}

func TestParseLoanAmountFloors(t *testing.T) {
	cases := map[string]string{
		"1000":   "1000",
		"999.99": "999",
		"0.4":    "0",
		"-1.5":   "-2",
	}
	for raw, want := range cases {
		got, err := ParseLoanAmount(raw)
		require.NoError(t, err)
		assertDecimal(t, want, got)
	}
	_, err := ParseLoanAmount("NaN")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
