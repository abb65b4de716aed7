// Package money formats and parses the masked currency fields used by every
// form in the console. Inputs are treated as a stream of cent digits, the way
// a card terminal keypad works: typing 1,2,3 yields "1,23".
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitCents left-pads the digits of raw to three places and returns the
// integer part (leading zeros trimmed) and the two cent digits.
func splitCents(raw string) (string, string) {
	digits := digitsOf(raw)
	if digits == "" {
		digits = "0"
	}
	for len(digits) < 3 {
		digits = "0" + digits
	}
	intPart := strings.TrimLeft(digits[:len(digits)-2], "0")
	if intPart == "" {
		intPart = "0"
	}
	return intPart, digits[len(digits)-2:]
}

func groupThousands(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String()
}

// FormatMask renders raw as a pt-BR amount, e.g. "123456" -> "1.234,56".
// Anything that is not a digit is ignored.
func FormatMask(raw string) string {
	intPart, cents := splitCents(raw)
	return groupThousands(intPart) + "," + cents
}

// ParseMask reads a masked amount back as a decimal.
func ParseMask(masked string) decimal.Decimal {
	digits := digitsOf(masked)
	if digits == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return v.Div(hundred)
}

func centsOf(v decimal.Decimal) string {
	return v.Abs().Mul(hundred).Round(0).StringFixed(0)
}

// MaskFromValue is the inverse of ParseMask for non-negative values.
func MaskFromValue(v decimal.Decimal) string {
	return FormatMask(centsOf(v))
}

// FormatCentsMask renders raw with a dot separator and no grouping,
// e.g. "199" -> "1.99". The rule editor uses this form for fees.
func FormatCentsMask(raw string) string {
	intPart, cents := splitCents(raw)
	return intPart + "." + cents
}

// CentsMaskFromValue is the cents-mask rendering of v.
func CentsMaskFromValue(v decimal.Decimal) string {
	return FormatCentsMask(centsOf(v))
}

// FormatBRL renders v as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(v decimal.Decimal) string {
	s := "R$ " + MaskFromValue(v)
	if v.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}

// MaskPhone formats up to eleven digits as a Brazilian phone number.
func MaskPhone(raw string) string {
	digits := digitsOf(raw)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case len(digits) <= 2:
		return digits
	case len(digits) <= 6:
		return "(" + digits[:2] + ") " + digits[2:]
	case len(digits) <= 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	default:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
}
