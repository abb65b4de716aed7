// Package fees resolves which card fee rule applies to a sale and what the
// seller actually receives once the fee is taken.
//
// Everything here works on already-fetched records and does no I/O.
package fees

import "github.com/shopspring/decimal"

// Bucket is the payment family a payment type belongs to.
type Bucket string

const (
	BucketCash   Bucket = "dinheiro"
	BucketDebit  Bucket = "debito"
	BucketCredit Bucket = "credito"
	BucketPIX    Bucket = "pix"
)

// Valid reports whether b is one of the known buckets.
func (b Bucket) Valid() bool {
	switch b {
	case BucketCash, BucketDebit, BucketCredit, BucketPIX:
		return true
	}
	return false
}

// PaymentType mirrors /financeiro/tipos-pagamento.
//
// Category is optional. When the backend fills it in, it overrides the
// description-based classification.
type PaymentType struct {
	ID              string          `json:"id"`
	Description     string          `json:"descricao"`
	Category        Bucket          `json:"categoria,omitempty"`
	FixedFee        decimal.Decimal `json:"taxaFixa"`
	PercentFee      decimal.Decimal `json:"taxaPercentual"`
	InstallmentFee  decimal.Decimal `json:"taxaParcela"`
	DiscountPercent decimal.Decimal `json:"descontoPercentual"`
	Installable     bool            `json:"parcelavel"`
	MinInstallments int             `json:"minParcelas"`
	MaxInstallments int             `json:"maxParcelas"`
	Active          bool            `json:"ativo"`
}

// CardAccount mirrors /financeiro/cartoes-contas.
type CardAccount struct {
	ID         string `json:"id"`
	Name       string `json:"nome"`
	Bank       string `json:"banco,omitempty"`
	Brand      string `json:"bandeira,omitempty"`
	ClosingDay *int   `json:"diaFechamento,omitempty"`
	DueDay     *int   `json:"diaVencimento,omitempty"`
	PixKey     string `json:"pixChave,omitempty"`
	Active     bool   `json:"ativo"`
}

// PIXEligible reports whether the account can receive PIX payments.
func (c CardAccount) PIXEligible() bool {
	return c.PixKey != ""
}

// CreditEligible reports whether the account has a billing cycle.
func (c CardAccount) CreditEligible() bool {
	return c.ClosingDay != nil && c.DueDay != nil
}

// CardRule is the fee configuration of one installment bucket on one card.
type CardRule struct {
	CardID                  string          `json:"cartaoId,omitempty"`
	Tag                     string          `json:"tipo"`
	PercentFee              decimal.Decimal `json:"taxaPercentual"`
	FixedFee                decimal.Decimal `json:"taxaFixa"`
	PerInstallmentSurcharge decimal.Decimal `json:"adicionalParcela"`
	SettlementDays          int             `json:"prazoRecebimentoDias"`
	SteppedSettlement       bool            `json:"prazoEscalonadoPadrao"`
}

// Range is an inclusive installment-count interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether n lies within r.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Quote is the fee breakdown for a total split into installments.
type Quote struct {
	Installments        int
	Gross               decimal.Decimal
	EffectivePercent    decimal.Decimal
	TotalFee            decimal.Decimal
	NetTotal            decimal.Decimal
	GrossPerInstallment decimal.Decimal
	NetPerInstallment   decimal.Decimal
}
