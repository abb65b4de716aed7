package fees

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Compute applies rule to total split into n installments. A nil rule means
// no fee. Per-installment values are zero when n is not positive.
func Compute(total decimal.Decimal, n int, rule *CardRule) Quote {
	q := Quote{
		Installments:     n,
		Gross:            total,
		EffectivePercent: decimal.Zero,
		TotalFee:         decimal.Zero,
		NetTotal:         total,
	}
	if rule != nil {
		q.EffectivePercent = rule.PercentFee.Add(rule.PerInstallmentSurcharge.Mul(decimal.NewFromInt(int64(n))))
		q.TotalFee = total.Mul(q.EffectivePercent).Div(hundred).Add(rule.FixedFee).Round(2)
		q.NetTotal = total.Sub(q.TotalFee)
	}
	if n <= 0 {
		q.GrossPerInstallment = decimal.Zero
		q.NetPerInstallment = decimal.Zero
		return q
	}
	div := decimal.NewFromInt(int64(n))
	q.GrossPerInstallment = total.Div(div).Round(2)
	q.NetPerInstallment = q.NetTotal.Div(div).Round(2)
	return q
}

// Input is everything Resolve needs to price a sale.
type Input struct {
	PaymentType  PaymentType
	Rules        []CardRule
	Total        decimal.Decimal
	Installments int
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Bucket       Bucket
	Allowed      []int
	Installments int
	Rule         CardRule
	HasRule      bool
	Quote        Quote
}

// Resolve classifies the payment type, narrows the card rules to the bucket,
// picks the rule for the installment count and computes the quote.
// PIX and cash always settle in one installment.
func Resolve(in Input) Resolution {
	b := ClassifyPaymentType(in.PaymentType)
	candidates := CandidateRules(b, in.Rules)
	res := Resolution{
		Bucket:       b,
		Allowed:      AllowedInstallments(b, in.Rules),
		Installments: in.Installments,
	}
	if b == BucketPIX || b == BucketCash {
		res.Installments = 1
	}
	res.Rule, res.HasRule = PickRule(candidates, res.Installments)
	if res.HasRule {
		rule := res.Rule
		res.Quote = Compute(in.Total, res.Installments, &rule)
	} else {
		res.Quote = Compute(in.Total, res.Installments, nil)
	}
	return res
}
