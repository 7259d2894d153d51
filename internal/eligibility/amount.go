package eligibility

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimals is the fixed-point precision of the governance token.
const Decimals = 18

// Symbol is appended to formatted amounts.
const Symbol = "ELFI"

var (
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")

	// ErrTooPrecise is returned for amounts with more than Decimals
	// significant fractional digits.
	ErrTooPrecise = errors.New("amount has too many decimal places")
)

var printer = message.NewPrinter(language.English)

// ParseAmount converts a decimal token amount such as "100.5" to wei.
// Trailing fractional zeros beyond the token precision are accepted.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("parse amount %q: %w", s, ErrNegativeAmount)
	}
	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: %w", s, ErrTooPrecise)
	}
	return shifted.BigInt(), nil
}

// FromWei converts a wei amount to an exact token decimal.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}

// ToWei converts a token decimal to wei, truncating below token precision.
func ToWei(d decimal.Decimal) *big.Int {
	return d.Shift(Decimals).BigInt()
}

// FormatAmount renders d with thousands separators and the token symbol,
// e.g. "1,234.5 ELFI". Whole amounts keep a ".0" suffix.
func FormatAmount(d decimal.Decimal) string {
	return FormatDecimal(d) + " " + Symbol
}

// FormatDecimal renders d with thousands separators and at least one
// fractional digit.
func FormatDecimal(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole := d.Truncate(0)
	fraction := "0"
	if s := d.String(); strings.Contains(s, ".") {
		fraction = s[strings.IndexByte(s, '.')+1:]
	}

	var intPart string
	if wb := whole.BigInt(); wb.IsInt64() {
		intPart = printer.Sprintf("%d", wb.Int64())
	} else {
		intPart = commify(wb.String())
	}
	return sign + intPart + "." + fraction
}

func commify(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
