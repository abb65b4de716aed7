package fees

import "time"

const (
	steppedFirstDays = 31
	steppedStepDays  = 30
)

// SettlementSchedule returns the date each of n installments is credited
// to the seller. Stepped rules pay the first installment after 31 days and
// each following one 30 days later; other rules credit every installment
// SettlementDays after the sale.
func SettlementSchedule(rule CardRule, saleDate time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, n)
	for i := range out {
		if rule.SteppedSettlement {
			out[i] = saleDate.AddDate(0, 0, steppedFirstDays+steppedStepDays*i)
			continue
		}
		out[i] = saleDate.AddDate(0, 0, rule.SettlementDays)
	}
	return out
}
