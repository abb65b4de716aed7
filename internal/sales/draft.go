// Package sales holds the transient state of a sale being keyed in at the
// counter: the chosen payment type, card and installment count, the line
// items, and the fee preview derived from them.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/loader"
)

var (
	ErrUnknownPaymentType = errors.New("unknown payment type")
	ErrUnknownCard        = errors.New("unknown card account")
	ErrUnknownProduct     = errors.New("unknown product")
	ErrCardNotEligible    = errors.New("card not eligible for payment type")
)

const dateLayout = "2006-01-02"

// Item is one line of the sale.
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal is quantity times unit price.
func (it Item) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Draft is never persisted; it lives for as long as the sale screen is open.
type Draft struct {
	paymentTypes []fees.PaymentType
	cards        []fees.CardAccount
	rules        map[string][]fees.CardRule
	products     map[string]estoqueapi.Product
	productOrder []string

	Date       time.Time
	CustomerID string
	Notes      string

	paymentTypeID string
	cardID        string
	installments  int
	items         []Item
}

// NewDraft starts an empty sale dated on now.
func NewDraft(refs loader.SaleReferences, now time.Time) *Draft {
	d := &Draft{
		paymentTypes: refs.PaymentTypes,
		cards:        refs.Cards,
		rules:        refs.Rules,
		products:     make(map[string]estoqueapi.Product, len(refs.Products)),
		Date:         now,
		installments: 1,
	}
	if d.rules == nil {
		d.rules = map[string][]fees.CardRule{}
	}
	for _, p := range refs.Products {
		d.products[p.ID] = p
		d.productOrder = append(d.productOrder, p.ID)
	}
	return d
}

func (d *Draft) PaymentTypes() []fees.PaymentType { return d.paymentTypes }

// Products lists the products in the order the API returned them.
func (d *Draft) Products() []estoqueapi.Product {
	out := make([]estoqueapi.Product, 0, len(d.productOrder))
	for _, id := range d.productOrder {
		out = append(out, d.products[id])
	}
	return out
}

// PaymentType returns the selected payment type.
func (d *Draft) PaymentType() (fees.PaymentType, bool) {
	for _, pt := range d.paymentTypes {
		if pt.ID == d.paymentTypeID && d.paymentTypeID != "" {
			return pt, true
		}
	}
	return fees.PaymentType{}, false
}

// Bucket is the payment family of the selected type, cash when none.
func (d *Draft) Bucket() fees.Bucket {
	pt, ok := d.PaymentType()
	if !ok {
		return fees.BucketCash
	}
	return fees.ClassifyPaymentType(pt)
}

// Card returns the selected card account.
func (d *Draft) Card() (fees.CardAccount, bool) {
	if d.cardID == "" {
		return fees.CardAccount{}, false
	}
	for _, c := range d.cards {
		if c.ID == d.cardID {
			return c, true
		}
	}
	return fees.CardAccount{}, false
}

// EligibleCards lists the cards usable with the selected payment type.
func (d *Draft) EligibleCards() []fees.CardAccount {
	return fees.EligibleCards(d.Bucket(), d.cards)
}

// CardRules returns the fee rules of the selected card.
func (d *Draft) CardRules() []fees.CardRule {
	if d.cardID == "" {
		return nil
	}
	return d.rules[d.cardID]
}

// Allowed lists the installment counts the current selection accepts.
func (d *Draft) Allowed() []int {
	return fees.AllowedInstallments(d.Bucket(), d.CardRules())
}

func (d *Draft) Installments() int { return d.installments }

// SelectPaymentType switches the payment type. The card is dropped when it
// cannot be used with the new type and the installment count is brought
// back into the allowed set.
func (d *Draft) SelectPaymentType(id string) error {
	found := false
	for _, pt := range d.paymentTypes {
		if pt.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentType, id)
	}
	d.paymentTypeID = id

	b := d.Bucket()
	if !fees.RequiresCard(b) {
		d.cardID = ""
	} else if d.cardID != "" && !d.cardEligible(d.cardID) {
		d.cardID = ""
	}
	d.normalizeInstallments()
	return nil
}

// SelectCard picks the card account. An empty id clears it.
func (d *Draft) SelectCard(id string) error {
	if id == "" {
		d.cardID = ""
		d.normalizeInstallments()
		return nil
	}
	known := false
	for _, c := range d.cards {
		if c.ID == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownCard, id)
	}
	if !d.cardEligible(id) {
		return fmt.Errorf("%w: %q", ErrCardNotEligible, id)
	}
	d.cardID = id
	d.normalizeInstallments()
	return nil
}

// SetInstallments stores n as typed; an out-of-range count is rejected by
// Validate rather than here.
func (d *Draft) SetInstallments(n int) {
	d.installments = n
}

// CyclePaymentType moves the selection step entries along the list.
func (d *Draft) CyclePaymentType(step int) {
	if len(d.paymentTypes) == 0 {
		return
	}
	idx := -1
	for i, pt := range d.paymentTypes {
		if pt.ID == d.paymentTypeID {
			idx = i
			break
		}
	}
	next := wrap(idx+step, len(d.paymentTypes))
	if idx < 0 && step < 0 {
		next = len(d.paymentTypes) - 1
	}
	_ = d.SelectPaymentType(d.paymentTypes[next].ID)
}

// CycleCard moves along the eligible cards.
func (d *Draft) CycleCard(step int) {
	cards := d.EligibleCards()
	if len(cards) == 0 {
		return
	}
	idx := -1
	for i, c := range cards {
		if c.ID == d.cardID {
			idx = i
			break
		}
	}
	next := wrap(idx+step, len(cards))
	if idx < 0 && step < 0 {
		next = len(cards) - 1
	}
	_ = d.SelectCard(cards[next].ID)
}

// CycleInstallments moves along the allowed installment counts.
func (d *Draft) CycleInstallments(step int) {
	allowed := d.Allowed()
	idx := 0
	for i, n := range allowed {
		if n == d.installments {
			idx = i
			break
		}
	}
	d.installments = allowed[wrap(idx+step, len(allowed))]
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (d *Draft) cardEligible(id string) bool {
	for _, c := range d.EligibleCards() {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (d *Draft) normalizeInstallments() {
	b := d.Bucket()
	if b == fees.BucketCash || b == fees.BucketPIX {
		d.installments = 1
		return
	}
	allowed := d.Allowed()
	if !fees.IsAllowed(allowed, d.installments) {
		d.installments = allowed[0]
	}
}

// AddItem appends a line. A zero unitPrice takes the product's current price.
func (d *Draft) AddItem(productID string, quantity int, unitPrice decimal.Decimal) error {
	p, ok := d.products[productID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}
	if unitPrice.IsZero() {
		unitPrice = p.CurrentPrice()
	}
	d.items = append(d.items, Item{
		ProductID: productID,
		Name:      p.Name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

// RemoveItem drops the line at index i. Out-of-range indexes are ignored.
func (d *Draft) RemoveItem(i int) {
	if i < 0 || i >= len(d.items) {
		return
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
}

func (d *Draft) Items() []Item {
	out := make([]Item, len(d.items))
	copy(out, d.items)
	return out
}

// Total is the gross amount of the sale.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Preview is the fee breakdown and the dates each installment settles on.
type Preview struct {
	fees.Resolution
	Schedule []time.Time
}

func (d *Draft) Preview() Preview {
	var pt fees.PaymentType
	if selected, ok := d.PaymentType(); ok {
		pt = selected
	}
	res := fees.Resolve(fees.Input{
		PaymentType:  pt,
		Rules:        d.CardRules(),
		Total:        d.Total(),
		Installments: d.installments,
	})
	p := Preview{Resolution: res}
	if res.HasRule {
		p.Schedule = fees.SettlementSchedule(res.Rule, d.Date, res.Installments)
	}
	return p
}

// Validate checks the draft the way the API would, so bad sales never leave
// the console.
func (d *Draft) Validate() error {
	v := forms.New()

	pt, hasType := d.PaymentType()
	v.Check(hasType, "tipoPagamentoId", "Selecione a forma de pagamento.")

	b := fees.BucketCash
	if hasType {
		b = fees.ClassifyPaymentType(pt)
	}
	if hasType && fees.RequiresCard(b) {
		_, hasCard := d.Card()
		v.Check(hasCard, "cartaoContaId", "Selecione o cartão/conta.")
	}

	v.Check(len(d.items) > 0, "itens", "Adicione ao menos um item.")

	seen := map[string]bool{}
	for i, it := range d.items {
		field := fmt.Sprintf("itens[%d]", i)
		if it.Quantity <= 0 {
			v.AddError(field+".qtde", fmt.Sprintf("Quantidade inválida para %s.", it.Name))
			continue
		}
		if seen[it.ProductID] {
			v.AddError(field+".produtoId", fmt.Sprintf("%s aparece mais de uma vez.", it.Name))
			continue
		}
		seen[it.ProductID] = true
		if p, ok := d.products[it.ProductID]; ok && p.Stock != nil && it.Quantity > *p.Stock {
			v.AddError(field+".qtde", fmt.Sprintf("Estoque insuficiente para %s (disponível: %d).", it.Name, *p.Stock))
		}
	}

	if hasType {
		allowed := d.Allowed()
		n := d.installments
		if b == fees.BucketPIX || b == fees.BucketCash {
			allowed = []int{1}
		}
		v.Check(fees.IsAllowed(allowed, n), "parcelas", fmt.Sprintf("%d parcela(s) não permitidas para esta forma de pagamento.", n))
	}

	return v.Err()
}

// Request builds the POST /vendas body from the current preview.
func (d *Draft) Request() estoqueapi.SaleInput {
	p := d.Preview()
	in := estoqueapi.SaleInput{
		Date:          d.Date.Format(dateLayout),
		CustomerID:    d.CustomerID,
		PaymentTypeID: d.paymentTypeID,
		CardAccountID: d.cardID,
		Installments:  p.Installments,
		Total:         p.Quote.Gross,
		FeeTotal:      p.Quote.TotalFee,
		NetTotal:      p.Quote.NetTotal,
		Notes:         d.Notes,
		Items:         make([]estoqueapi.SaleItemInput, 0, len(d.items)),
	}
	if p.HasRule {
		in.RuleTag = p.Rule.Tag
	}
	for _, it := range d.items {
		in.Items = append(in.Items, estoqueapi.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return in
}

// Submitter records a sale.
type Submitter interface {
	CreateSale(ctx context.Context, in estoqueapi.SaleInput) (*estoqueapi.Sale, error)
}

// Submit validates the draft and hands it to s. Nothing is sent when the
// draft is invalid.
func (d *Draft) Submit(ctx context.Context, s Submitter) (*estoqueapi.Sale, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	sale, err := s.CreateSale(ctx, d.Request())
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	return sale, nil
}
