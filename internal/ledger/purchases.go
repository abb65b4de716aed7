// Package ledger builds the purchase and expense requests and the monthly
// card extract shown on the cards screen.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/money"
)

const dateLayout = "2006-01-02"

// PurchaseLine is one product row of a purchase order. UnitMask holds the
// masked amount as typed.
type PurchaseLine struct {
	ProductID string
	Quantity  int
	UnitMask  string
}

func (l PurchaseLine) Subtotal() decimal.Decimal {
	return money.ParseMask(l.UnitMask).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type PurchaseForm struct {
	Date          time.Time
	SupplierID    string
	PaymentTypeID string
	CardAccountID string
	Installments  int
	FreightMask   string
	Notes         string
	Items         []PurchaseLine
}

// NewPurchaseForm returns a blank order with one empty line.
func NewPurchaseForm(now time.Time) PurchaseForm {
	return PurchaseForm{
		Date:         now,
		Installments: 1,
		FreightMask:  money.FormatMask(""),
		Items:        []PurchaseLine{NewPurchaseLine()},
	}
}

func NewPurchaseLine() PurchaseLine {
	return PurchaseLine{Quantity: 1, UnitMask: money.FormatMask("")}
}

func (f PurchaseForm) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range f.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Total is the items plus freight.
func (f PurchaseForm) Total() decimal.Decimal {
	return f.ItemsTotal().Add(money.ParseMask(f.FreightMask))
}

func (f PurchaseForm) Validate() error {
	v := forms.New()
	v.Check(f.SupplierID != "" && f.PaymentTypeID != "", "fornecedorId", "Fornecedor e tipo de pagamento são obrigatórios.")
	for i, it := range f.Items {
		if it.ProductID == "" {
			v.AddError(fmt.Sprintf("itens[%d].produtoId", i), "Selecione todos os produtos nos itens.")
			break
		}
	}
	return v.Err()
}

// Request is the POST /compras body.
func (f PurchaseForm) Request() estoqueapi.PurchaseInput {
	installments := f.Installments
	if installments < 1 {
		installments = 1
	}
	in := estoqueapi.PurchaseInput{
		Date:          f.Date.Format(dateLayout),
		SupplierID:    f.SupplierID,
		PaymentTypeID: f.PaymentTypeID,
		CardAccountID: f.CardAccountID,
		Installments:  installments,
		Freight:       money.ParseMask(f.FreightMask),
		Notes:         f.Notes,
		Items:         make([]estoqueapi.PurchaseItemInput, 0, len(f.Items)),
	}
	for _, it := range f.Items {
		in.Items = append(in.Items, estoqueapi.PurchaseItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitValue: money.ParseMask(it.UnitMask),
		})
	}
	return in
}

// InstallmentsFor returns the payments belonging to purchaseID.
func InstallmentsFor(purchaseID string, payments []estoqueapi.PurchasePayment) []estoqueapi.PurchasePayment {
	if purchaseID == "" {
		return nil
	}
	var out []estoqueapi.PurchasePayment
	for _, p := range payments {
		if p.Purchase != nil && p.Purchase.ID == purchaseID {
			out = append(out, p)
		}
	}
	return out
}

// MarkPaid is the PATCH body that settles one installment.
func MarkPaid(now time.Time) estoqueapi.PaymentUpdate {
	return estoqueapi.PaymentUpdate{
		Status: estoqueapi.PaymentStatusPaid,
		PaidAt: now.UTC().Format(time.RFC3339),
	}
}
