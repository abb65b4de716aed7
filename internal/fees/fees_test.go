package fees

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Bucket
	}{
		{"PIX", BucketPIX},
		{"Cartão de Débito", BucketDebit},
		{"Crédito", BucketCredit},
		{"credito_2_6", BucketCredit},
		{"Dinheiro", BucketCash},
		{"Boleto", BucketCash},
		{"pix debito", BucketPIX},
		{"debito credito", BucketDebit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.in), "Classify(%q)", tt.in)
	}
}

func TestClassifyPaymentTypePrefersCategory(t *testing.T) {
	pt := PaymentType{Description: "Maquininha", Category: BucketCredit}
	assert.Equal(t, BucketCredit, ClassifyPaymentType(pt))

	pt.Category = "bogus"
	assert.Equal(t, BucketCash, ClassifyPaymentType(pt))
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		tag    string
		want   Range
		wantOK bool
	}{
		{"credito_2_6", Range{2, 6}, true},
		{"credito_6_2", Range{2, 6}, true},
		{"credito_12_7", Range{7, 12}, true},
		{"credito_3", Range{3, 3}, true},
		{"credito_vista", Range{1, 1}, true},
		{"Crédito à Vista", Range{1, 1}, true},
		{"credito av", Range{1, 1}, true},
		{"debito", Range{}, false},
		{"avulso", Range{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseRange(tt.tag)
		assert.Equal(t, tt.wantOK, ok, "ParseRange(%q) ok", tt.tag)
		assert.Equal(t, tt.want, got, "ParseRange(%q)", tt.tag)
	}
}

func TestParseRangeClampsBounds(t *testing.T) {
	tests := []struct {
		tag    string
		want   Range
		wantOK bool
	}{
		{"credito_0_3", Range{1, 3}, true},
		{"credito_0", Range{1, 1}, true},
		{"credito_2_500", Range{2, InstallmentCap}, true},
		{"credito_1_2000000000", Range{1, InstallmentCap}, true},
		{"credito_150_200", Range{}, false},
		{"credito_1_99999999999999999999", Range{}, false},
		{"credito_99999999999999999999", Range{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseRange(tt.tag)
		assert.Equal(t, tt.wantOK, ok, "ParseRange(%q) ok", tt.tag)
		assert.Equal(t, tt.want, got, "ParseRange(%q)", tt.tag)
	}
}

func TestAllowedInstallmentsHugeTags(t *testing.T) {
	rules := []CardRule{
		{Tag: "credito_1_99999999999999999999"},
		{Tag: "credito_2_2000000000"},
	}
	got := AllowedInstallments(BucketCredit, rules)
	require.Len(t, got, InstallmentCap-1)
	assert.Equal(t, 2, got[0])
	assert.Equal(t, InstallmentCap, got[len(got)-1])

	assert.Equal(t, []int{1, 2, 3}, AllowedInstallments(BucketCredit, []CardRule{{Tag: "credito_0_3"}}))
}

func TestParseRangeOrderIndependent(t *testing.T) {
	for a := 1; a <= 12; a++ {
		for b := 1; b <= 12; b++ {
			tag := "credito_" + strconv.Itoa(a) + "_" + strconv.Itoa(b)
			got, ok := ParseRange(tag)
			require.True(t, ok)
			assert.Equal(t, min(a, b), got.Min)
			assert.Equal(t, max(a, b), got.Max)
		}
	}
}

func cardRules() []CardRule {
	return []CardRule{
		{Tag: "debito", PercentFee: d("1.5")},
		{Tag: "credito_vista", PercentFee: d("2.5")},
		{Tag: "credito_2_6", PercentFee: d("3"), PerInstallmentSurcharge: d("1"), FixedFee: d("0.50")},
		{Tag: "credito_7_12", PercentFee: d("4"), PerInstallmentSurcharge: d("1.2")},
	}
}

func TestAllowedInstallments(t *testing.T) {
	rules := cardRules()

	want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	assert.Equal(t, want, AllowedInstallments(BucketCredit, rules))
	assert.Equal(t, []int{1}, AllowedInstallments(BucketDebit, rules))
	assert.Equal(t, []int{1}, AllowedInstallments(BucketPIX, rules))
	assert.Equal(t, []int{1}, AllowedInstallments(BucketCash, rules))

	only := []CardRule{{Tag: "credito_2_6"}, {Tag: "credito_7_12"}}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, AllowedInstallments(BucketCredit, only))

	assert.Equal(t, []int{1}, AllowedInstallments(BucketCredit, nil))
}

func TestPIXAlwaysSingleInstallment(t *testing.T) {
	rules := []CardRule{{Tag: "pix_1_12"}}
	assert.Equal(t, []int{1}, AllowedInstallments(BucketPIX, rules))

	res := Resolve(Input{
		PaymentType:  PaymentType{Description: "PIX"},
		Rules:        rules,
		Total:        d("100"),
		Installments: 5,
	})
	assert.Equal(t, 1, res.Installments)
	assert.Equal(t, 1, res.Quote.Installments)
}

func TestPickRule(t *testing.T) {
	candidates := CandidateRules(BucketCredit, cardRules())
	require.Len(t, candidates, 3)

	r, ok := PickRule(candidates, 4)
	require.True(t, ok)
	assert.Equal(t, "credito_2_6", r.Tag)

	r, ok = PickRule(candidates, 10)
	require.True(t, ok)
	assert.Equal(t, "credito_7_12", r.Tag)

	r, ok = PickRule(candidates, 18)
	require.True(t, ok)
	assert.Equal(t, "credito_vista", r.Tag, "falls back to the first candidate")

	_, ok = PickRule(nil, 1)
	assert.False(t, ok)
}

func TestCandidateRulesCashHasNone(t *testing.T) {
	assert.Empty(t, CandidateRules(BucketCash, []CardRule{{Tag: "dinheiro"}}))
}

func TestComputeWorkedExample(t *testing.T) {
	rule := &CardRule{PercentFee: d("3"), PerInstallmentSurcharge: d("1"), FixedFee: d("0.50")}
	q := Compute(d("1000.00"), 3, rule)

	assert.True(t, q.EffectivePercent.Equal(d("6")), "effective = %s", q.EffectivePercent)
	assert.True(t, q.TotalFee.Equal(d("60.50")), "fee = %s", q.TotalFee)
	assert.True(t, q.NetTotal.Equal(d("939.50")), "net = %s", q.NetTotal)
	assert.True(t, q.NetPerInstallment.Equal(d("313.17")), "net/inst = %s", q.NetPerInstallment)
	assert.True(t, q.GrossPerInstallment.Equal(d("333.33")), "gross/inst = %s", q.GrossPerInstallment)
}

func TestComputeNetIsGrossMinusFee(t *testing.T) {
	rule := &CardRule{PercentFee: d("4.99"), PerInstallmentSurcharge: d("0.7"), FixedFee: d("1.25")}
	for n := 1; n <= 12; n++ {
		q := Compute(d("437.90"), n, rule)
		assert.True(t, q.NetTotal.Equal(q.Gross.Sub(q.TotalFee)), "n=%d", n)
	}
}

func TestComputeEdgeCases(t *testing.T) {
	q := Compute(d("250"), 0, &CardRule{PercentFee: d("2")})
	assert.True(t, q.NetPerInstallment.IsZero())
	assert.True(t, q.GrossPerInstallment.IsZero())

	q = Compute(d("250"), 2, nil)
	assert.True(t, q.TotalFee.IsZero())
	assert.True(t, q.NetTotal.Equal(d("250")))
	assert.True(t, q.NetPerInstallment.Equal(d("125")))
}

func TestResolveCashHasNoFee(t *testing.T) {
	res := Resolve(Input{
		PaymentType:  PaymentType{Description: "Dinheiro"},
		Rules:        cardRules(),
		Total:        d("80"),
		Installments: 3,
	})
	assert.Equal(t, BucketCash, res.Bucket)
	assert.False(t, res.HasRule)
	assert.Equal(t, 1, res.Installments)
	assert.True(t, res.Quote.NetTotal.Equal(d("80")))
}

func TestResolveCredit(t *testing.T) {
	res := Resolve(Input{
		PaymentType:  PaymentType{Description: "Cartão de Crédito"},
		Rules:        cardRules(),
		Total:        d("1000.00"),
		Installments: 3,
	})
	require.True(t, res.HasRule)
	assert.Equal(t, "credito_2_6", res.Rule.Tag)
	assert.True(t, res.Quote.TotalFee.Equal(d("60.50")))
	assert.Len(t, res.Allowed, 12)
}

func TestEligibleCards(t *testing.T) {
	closing, due := 5, 15
	cards := []CardAccount{
		{ID: "a", PixKey: "key"},
		{ID: "b", ClosingDay: &closing, DueDay: &due},
		{ID: "c", ClosingDay: &closing},
	}

	ids := func(cs []CardAccount) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a"}, ids(EligibleCards(BucketPIX, cards)))
	assert.Equal(t, []string{"b"}, ids(EligibleCards(BucketCredit, cards)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(EligibleCards(BucketDebit, cards)))
	assert.Nil(t, EligibleCards(BucketCash, cards))
}

func TestSettlementSchedule(t *testing.T) {
	sale := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	stepped := SettlementSchedule(CardRule{SteppedSettlement: true, SettlementDays: 2}, sale, 3)
	require.Len(t, stepped, 3)
	assert.Equal(t, sale.AddDate(0, 0, 31), stepped[0])
	assert.Equal(t, sale.AddDate(0, 0, 61), stepped[1])
	assert.Equal(t, sale.AddDate(0, 0, 91), stepped[2])

	flat := SettlementSchedule(CardRule{SettlementDays: 2}, sale, 2)
	require.Len(t, flat, 2)
	assert.Equal(t, sale.AddDate(0, 0, 2), flat[0])
	assert.Equal(t, sale.AddDate(0, 0, 2), flat[1])

	assert.Nil(t, SettlementSchedule(CardRule{}, sale, 0))
}

func TestFillRuleSet(t *testing.T) {
	got := FillRuleSet("card-1", []CardRule{{Tag: "credito_2_6", PercentFee: d("3")}, {Tag: "other"}})
	require.Len(t, got, len(RuleTags))
	for i, r := range got {
		assert.Equal(t, RuleTags[i].Tag, r.Tag)
		assert.Equal(t, "card-1", r.CardID)
	}
	assert.True(t, got[2].PercentFee.Equal(d("3")))
	assert.True(t, got[0].PercentFee.IsZero())
	assert.Equal(t, "Crédito 2 a 6x", LabelFor("credito_2_6"))
	assert.Equal(t, "x", LabelFor("x"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "credito a vista", Normalize("  Crédito À Vista "))
}
