package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
)

const monthLayout = "2006-01"

// FormatMonth renders t as the YYYY-MM reference month, in UTC.
func FormatMonth(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// ShiftMonth moves a YYYY-MM month by delta months.
func ShiftMonth(month string, delta int) (string, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	return FormatMonth(t.AddDate(0, delta, 0)), nil
}

func parseAPIDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterExtract keeps the payments of cardID whose due date (or payment
// date when there is none) falls in month. Payments with neither date
// count as now. A non-empty typeFilter must appear in the payment type
// description. An empty month matches every month.
func FilterExtract(payments []estoqueapi.PurchasePayment, cardID, month, typeFilter string, now time.Time) []estoqueapi.PurchasePayment {
	if cardID == "" {
		return nil
	}
	typeFilter = strings.ToLower(strings.TrimSpace(typeFilter))

	var out []estoqueapi.PurchasePayment
	for _, p := range payments {
		if p.CardAccount == nil || p.CardAccount.ID != cardID {
			continue
		}
		base := p.DueDate
		if base == "" {
			base = p.PaidAt
		}
		at := now
		if base != "" {
			t, ok := parseAPIDate(base)
			if !ok {
				continue
			}
			at = t
		}
		if month != "" && FormatMonth(at) != month {
			continue
		}
		if typeFilter != "" {
			desc := ""
			if p.PaymentType != nil {
				desc = strings.ToLower(p.PaymentType.Description)
			}
			if !strings.Contains(desc, typeFilter) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

type ExtractSummary struct {
	Total   decimal.Decimal
	Paid    decimal.Decimal
	Pending decimal.Decimal
}

// HasPending reports whether the month still has money to pay.
func (s ExtractSummary) HasPending() bool {
	return s.Pending.IsPositive()
}

func Summarize(payments []estoqueapi.PurchasePayment) ExtractSummary {
	s := ExtractSummary{Total: decimal.Zero, Paid: decimal.Zero}
	for _, p := range payments {
		s.Total = s.Total.Add(p.Value)
		if p.Status == estoqueapi.PaymentStatusPaid {
			s.Paid = s.Paid.Add(p.Value)
		}
	}
	s.Pending = s.Total.Sub(s.Paid)
	return s
}

// InvoicePayment is the body that marks a card's month as paid.
func InvoicePayment(cardID, month string, now time.Time) estoqueapi.InvoicePayment {
	return estoqueapi.InvoicePayment{
		CardAccountID: cardID,
		Month:         month,
		PaidAt:        now.UTC().Format(time.RFC3339),
	}
}
