package fees

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s and strips diacritics, so "Crédito" becomes "credito".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.ToLower(strings.TrimSpace(result))
}

// Classify maps a free-text payment description to a bucket.
// Anything that is not PIX, debit or credit is treated as cash.
func Classify(description string) Bucket {
	d := Normalize(description)
	switch {
	case strings.Contains(d, "pix"):
		return BucketPIX
	case strings.Contains(d, "deb"):
		return BucketDebit
	case strings.Contains(d, "cred"):
		return BucketCredit
	default:
		return BucketCash
	}
}

// ClassifyPaymentType prefers the explicit category and falls back to the
// description text.
func ClassifyPaymentType(pt PaymentType) Bucket {
	if pt.Category.Valid() {
		return pt.Category
	}
	return Classify(pt.Description)
}

// RequiresCard reports whether a sale in bucket b must name a card/account.
func RequiresCard(b Bucket) bool {
	return b == BucketPIX || b == BucketDebit || b == BucketCredit
}

// EligibleCards filters cards to the ones usable with bucket b.
func EligibleCards(b Bucket, cards []CardAccount) []CardAccount {
	if !RequiresCard(b) {
		return nil
	}
	out := make([]CardAccount, 0, len(cards))
	for _, c := range cards {
		switch b {
		case BucketPIX:
			if !c.PIXEligible() {
				continue
			}
		case BucketCredit:
			if !c.CreditEligible() {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
