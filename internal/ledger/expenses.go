package ledger

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/money"
)

// DefaultExpenseWindow is how far back the expense list looks by default.
const DefaultExpenseWindow = 30 * 24 * time.Hour

const defaultItemDescription = "Item"

// IsCredit reports whether an expense paid with pt is split into
// installments.
func IsCredit(pt fees.PaymentType) bool {
	if pt.Category.Valid() {
		return pt.Category == fees.BucketCredit
	}
	return strings.Contains(fees.Normalize(pt.Description), "cr")
}

// RequiresCard reports whether an expense paid with pt names a card or
// account.
func RequiresCard(pt fees.PaymentType) bool {
	if pt.Category.Valid() {
		return fees.RequiresCard(pt.Category)
	}
	desc := fees.Normalize(pt.Description)
	if strings.Contains(desc, "dinheiro") {
		return false
	}
	for _, k := range []string{"pix", "debito", "credito"} {
		if strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

// EligibleCards lists the cards an expense paid with pt may use.
func EligibleCards(pt fees.PaymentType, cards []fees.CardAccount) []fees.CardAccount {
	if !RequiresCard(pt) {
		return nil
	}
	switch {
	case strings.Contains(fees.Normalize(pt.Description), "pix"):
		return fees.EligibleCards(fees.BucketPIX, cards)
	case IsCredit(pt):
		return fees.EligibleCards(fees.BucketCredit, cards)
	default:
		return fees.EligibleCards(fees.BucketDebit, cards)
	}
}

type ExpenseLine struct {
	Description string
	Quantity    int
	UnitMask    string
}

func (l ExpenseLine) Subtotal() decimal.Decimal {
	return money.ParseMask(l.UnitMask).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ExpenseForm is the new-expense dialog. BaseMask is a free amount added on
// top of the lines.
type ExpenseForm struct {
	Date          time.Time
	Description   string
	SupplierID    string
	PaymentType   fees.PaymentType
	CardAccountID string
	Installments  int
	BaseMask      string
	Notes         string
	Items         []ExpenseLine
}

func NewExpenseForm(now time.Time) ExpenseForm {
	return ExpenseForm{
		Date:         now,
		Installments: 1,
		BaseMask:     money.FormatMask(""),
		Items:        []ExpenseLine{{Quantity: 1, UnitMask: money.FormatMask("")}},
	}
}

// SelectPaymentType switches the type and drops the card when the new type
// does not take one.
func (f *ExpenseForm) SelectPaymentType(pt fees.PaymentType) {
	f.PaymentType = pt
	if !RequiresCard(pt) {
		f.CardAccountID = ""
	}
}

func (f ExpenseForm) Total() decimal.Decimal {
	total := money.ParseMask(f.BaseMask)
	for _, it := range f.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (f ExpenseForm) Validate() error {
	v := forms.New()
	if f.PaymentType.ID == "" {
		v.AddError("tipoPagamentoId", "Tipo de pagamento é obrigatório.")
		return v.Err()
	}
	if RequiresCard(f.PaymentType) {
		v.Check(f.CardAccountID != "", "cartaoContaId", "Selecione um cartão/conta para este gasto.")
	}
	if IsCredit(f.PaymentType) {
		v.Check(f.Installments >= 1, "parcelas", "Informe o número de parcelas para crédito.")
	}
	return v.Err()
}

// Request is the POST /gastos body. Only credit expenses carry more than
// one installment.
func (f ExpenseForm) Request() estoqueapi.ExpenseInput {
	in := estoqueapi.ExpenseInput{
		Date:          f.Date.Format(dateLayout),
		Description:   strings.TrimSpace(f.Description),
		SupplierID:    f.SupplierID,
		PaymentTypeID: f.PaymentType.ID,
		Installments:  1,
		Total:         f.Total(),
		Notes:         strings.TrimSpace(f.Notes),
		Items:         make([]estoqueapi.ExpenseItemInput, 0, len(f.Items)),
	}
	if RequiresCard(f.PaymentType) {
		in.CardAccountID = f.CardAccountID
	}
	if IsCredit(f.PaymentType) {
		in.Installments = f.Installments
	}
	for _, it := range f.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = defaultItemDescription
		}
		in.Items = append(in.Items, estoqueapi.ExpenseItemInput{
			Description: desc,
			Quantity:    it.Quantity,
			UnitValue:   money.ParseMask(it.UnitMask),
		})
	}
	return in
}

// ExpenseFilter narrows GET /gastos. Dates are YYYY-MM-DD.
type ExpenseFilter struct {
	Description   string
	From          string
	To            string
	SupplierID    string
	PaymentTypeID string
	Status        string
}

// DefaultExpenseFilter covers the last 30 days up to now.
func DefaultExpenseFilter(now time.Time) ExpenseFilter {
	return ExpenseFilter{
		From: now.Add(-DefaultExpenseWindow).UTC().Format(dateLayout),
		To:   now.UTC().Format(dateLayout),
	}
}

// Query encodes the filter. The payment type goes out under both the
// current and the legacy parameter name.
func (f ExpenseFilter) Query() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.Description); s != "" {
		q.Set("descricao", s)
	}
	if f.From != "" {
		q.Set("dataInicio", f.From)
	}
	if f.To != "" {
		q.Set("dataFim", f.To)
	}
	if f.SupplierID != "" {
		q.Set("fornecedorId", f.SupplierID)
	}
	if f.PaymentTypeID != "" {
		q.Set("tipoPagamentoId", f.PaymentTypeID)
		q.Set("tipoPagamento", f.PaymentTypeID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return q
}

var baseStatuses = []string{"pendente", "pago", "cancelado"}

// StatusOptions is the base status list followed by any other status seen
// in expenses, lowercased and deduplicated.
func StatusOptions(expenses []estoqueapi.Expense) []string {
	out := append([]string(nil), baseStatuses...)
	seen := map[string]bool{}
	for _, s := range baseStatuses {
		seen[s] = true
	}
	var extra []string
	for _, e := range expenses {
		s := strings.ToLower(strings.TrimSpace(e.Status))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		extra = append(extra, s)
	}
	sort.Strings(extra)
	return append(out, extra...)
}
