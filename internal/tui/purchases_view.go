package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/ledger"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/money"
)

// ledgerRefs feeds the pickers of the purchase and expense dialogs.
type ledgerRefs struct {
	suppliers    []estoqueapi.Supplier
	paymentTypes []fees.PaymentType
	cards        []fees.CardAccount
	products     []estoqueapi.Product
}

type purchasesData struct {
	purchases []estoqueapi.Purchase
	payments  []estoqueapi.PurchasePayment
	refs      ledgerRefs
}

type purchaseSavedMsg struct {
	err error
}

type paymentUpdatedMsg struct {
	number int
	err    error
}

// ledgerRefFetches returns the fetches that fill refs. Products are only
// read when withProducts is set.
func ledgerRefFetches(client *estoqueapi.Client, refs *ledgerRefs, withProducts bool) []func(context.Context) error {
	fetches := []func(context.Context) error{
		func(ctx context.Context) error {
			suppliers, err := client.ListSuppliers(ctx)
			if err != nil {
				return fmt.Errorf("load suppliers: %w", err)
			}
			refs.suppliers = suppliers
			return nil
		},
		func(ctx context.Context) error {
			types, err := client.ListPaymentTypes(ctx)
			if err != nil {
				return fmt.Errorf("load payment types: %w", err)
			}
			refs.paymentTypes = types
			return nil
		},
		func(ctx context.Context) error {
			cards, err := client.ListCardAccounts(ctx)
			if err != nil {
				return fmt.Errorf("load cards: %w", err)
			}
			refs.cards = cards
			return nil
		},
	}
	if withProducts {
		fetches = append(fetches, func(ctx context.Context) error {
			products, err := client.AllProducts(ctx)
			if err != nil {
				return fmt.Errorf("load products: %w", err)
			}
			refs.products = products
			return nil
		})
	}
	return fetches
}

func loadPurchases(client *estoqueapi.Client) loader.LoadFunc {
	return func(ctx context.Context) (any, error) {
		var data purchasesData
		fetches := append(ledgerRefFetches(client, &data.refs, true),
			func(ctx context.Context) error {
				purchases, err := client.ListPurchases(ctx)
				if err != nil {
					return fmt.Errorf("load purchases: %w", err)
				}
				data.purchases = purchases
				return nil
			},
			func(ctx context.Context) error {
				payments, err := client.ListPurchasePayments(ctx)
				if err != nil {
					return fmt.Errorf("load payments: %w", err)
				}
				data.payments = payments
				return nil
			},
		)
		if err := loader.FetchAll(ctx, fetches...); err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (m model) applyPurchasesData(data purchasesData) model {
	m.purchases = data.purchases
	m.purchasePayments = data.payments
	m.refs = data.refs
	m.purchaseCursor = clampCursor(m.purchaseCursor, len(m.purchases))
	m.purchasePaneCursor = clampCursor(m.purchasePaneCursor, len(m.selectedInstallments()))
	return m
}

func (m model) selectedInstallments() []estoqueapi.PurchasePayment {
	if len(m.purchases) == 0 {
		return nil
	}
	p := m.purchases[clampCursor(m.purchaseCursor, len(m.purchases))]
	return ledger.InstallmentsFor(p.ID, m.purchasePayments)
}

func (m model) purchasesKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		if m.purchasePaneOpen {
			m.purchasePaneOpen = false
			return m, nil, true
		}
	case "enter":
		if len(m.purchases) > 0 {
			m.purchasePaneOpen = !m.purchasePaneOpen
			m.purchasePaneCursor = 0
		}
		return m, nil, true
	case "up", "k":
		if m.purchasePaneOpen {
			m.purchasePaneCursor = clampCursor(m.purchasePaneCursor-1, len(m.selectedInstallments()))
		} else {
			m.purchaseCursor = clampCursor(m.purchaseCursor-1, len(m.purchases))
		}
		return m, nil, true
	case "down", "j":
		if m.purchasePaneOpen {
			m.purchasePaneCursor = clampCursor(m.purchasePaneCursor+1, len(m.selectedInstallments()))
		} else {
			m.purchaseCursor = clampCursor(m.purchaseCursor+1, len(m.purchases))
		}
		return m, nil, true
	case "p":
		if !m.purchasePaneOpen {
			return m, nil, true
		}
		installments := m.selectedInstallments()
		if len(installments) == 0 {
			return m, nil, true
		}
		inst := installments[clampCursor(m.purchasePaneCursor, len(installments))]
		if inst.Status == estoqueapi.PaymentStatusPaid {
			next, cmd := m.feedback(fmt.Sprintf("Parcela %d já está paga.", inst.Number))
			return next, cmd, true
		}
		update := ledger.MarkPaid(m.now())
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			return paymentUpdatedMsg{number: inst.Number, err: client.UpdatePurchasePayment(ctx, inst.ID, update)}
		}, true
	case "a":
		m.form = m.newPurchaseForm()
		return m, nil, true
	}
	return m, nil, false
}

func supplierChoices(suppliers []estoqueapi.Supplier, none string) []choice {
	out := []choice{}
	if none != "" {
		out = append(out, choice{id: "", label: none})
	}
	for _, s := range suppliers {
		out = append(out, choice{id: s.ID, label: s.Name})
	}
	return out
}

func paymentTypeChoices(types []fees.PaymentType) []choice {
	out := make([]choice, 0, len(types))
	for _, t := range types {
		out = append(out, choice{id: t.ID, label: t.Description})
	}
	return out
}

func cardChoices(cards []fees.CardAccount) []choice {
	out := []choice{{id: "", label: "(nenhum)"}}
	for _, c := range cards {
		out = append(out, choice{id: c.ID, label: c.Name})
	}
	return out
}

func (m model) newPurchaseForm() formDialog {
	products := make([]choice, 0, len(m.refs.products))
	for _, p := range m.refs.products {
		products = append(products, choice{id: p.ID, label: p.Name})
	}
	return formDialog{
		kind:  formNewPurchase,
		title: "Nova compra",
		fields: []formField{
			{key: "supplier", label: "fornecedor", kind: fieldChoice, options: supplierChoices(m.refs.suppliers, "")},
			{key: "type", label: "pagamento", kind: fieldChoice, options: paymentTypeChoices(m.refs.paymentTypes)},
			{key: "card", label: "cartão/conta", kind: fieldChoice, options: cardChoices(m.refs.cards)},
			{key: "installments", label: "parcelas", kind: fieldNumber, value: "1", limit: 2},
			{key: "product", label: "produto", kind: fieldChoice, options: products},
			{key: "qty", label: "quantidade", kind: fieldNumber, value: "1", limit: 5},
			{key: "unit", label: "valor unitário", kind: fieldMoney, limit: 12},
			{key: "freight", label: "frete", kind: fieldMoney, limit: 10},
			{key: "notes", label: "observações", kind: fieldText, limit: 255},
		},
	}
}

func (m model) submitPurchaseForm() (model, tea.Cmd) {
	form := ledger.NewPurchaseForm(m.now())
	form.SupplierID = m.form.choiceID("supplier")
	form.PaymentTypeID = m.form.choiceID("type")
	form.CardAccountID = m.form.choiceID("card")
	form.Installments = m.form.number("installments")
	form.FreightMask = m.form.mask("freight")
	form.Notes = m.form.text("notes")
	form.Items = []ledger.PurchaseLine{{
		ProductID: m.form.choiceID("product"),
		Quantity:  max(1, m.form.number("qty")),
		UnitMask:  m.form.mask("unit"),
	}}
	if err := form.Validate(); err != nil {
		return m.rejectForm("compra", err), nil
	}
	in := form.Request()
	m.form.busy = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return purchaseSavedMsg{err: client.CreatePurchase(ctx, in)}
	}
}

func (m model) handlePurchaseSaved(msg purchaseSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form.active() {
			m.form.busy = false
			m.form.err = msg.err.Error()
		}
		return m, nil
	}
	m.form = formDialog{}
	return m.reloadWithFeedback(screenPurchases, "Compra registrada.")
}

func (m model) handlePaymentUpdated(msg paymentUpdatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, nil
	}
	return m.reloadWithFeedback(screenPurchases, "Parcela "+strconv.Itoa(msg.number)+" paga.")
}

// reloadWithFeedback shows text and reloads s when it is still on screen.
func (m model) reloadWithFeedback(s screenMode, text string) (tea.Model, tea.Cmd) {
	var feedback, reload tea.Cmd
	m, feedback = m.feedback(text)
	if m.screen != s {
		return m, feedback
	}
	m, reload = m.enterScreen(s)
	return m, tea.Batch(feedback, reload)
}

func refName(r *estoqueapi.Ref) string {
	if r == nil {
		return "-"
	}
	return firstNonEmpty(r.Name, r.Description, r.ID)
}

func (m model) renderPurchasesScreen(layoutWidth int) string {
	title := m.renderScreenTitle("compras", layoutWidth)
	if len(m.purchases) == 0 {
		if m.loading {
			return title
		}
		return strings.Join([]string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("nenhuma compra registrada"))}, "\n")
	}

	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	rows := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("  %-10s %-22s %-16s %4s %12s  %s", "data", "fornecedor", "pagamento", "parc", "total", "status"))}
	for i, p := range m.purchases {
		row := fmt.Sprintf("%-10s %-22s %-16s %4d %12s  %s",
			shortDate(p.Date),
			truncate(refName(p.Supplier), 22),
			truncate(refName(p.PaymentType), 16),
			max(1, p.Installments),
			money.FormatBRL(p.Total),
			p.Status,
		)
		if i == m.purchaseCursor {
			row = selected.Render("> " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	listBorder := "#FFD54A"
	if m.purchasePaneOpen {
		listBorder = "#FFFFFF"
	}
	list := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(listBorder)).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))

	body := list
	if m.purchasePaneOpen {
		installments := m.selectedInstallments()
		lines := []string{lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("parcelas")}
		if len(installments) == 0 {
			lines = append(lines, mutedText("nenhuma parcela"))
		}
		for i, inst := range installments {
			status := inst.Status
			if status == estoqueapi.PaymentStatusPaid {
				status = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76")).Render(status)
			}
			row := fmt.Sprintf("%2d  %-10s %12s  ", inst.Number, shortDate(inst.DueDate), money.FormatBRL(inst.Value))
			if i == m.purchasePaneCursor {
				row = selected.Render(row)
			}
			lines = append(lines, row+status)
		}
		pane := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFD54A")).
			Padding(0, 1).
			Render(strings.Join(lines, "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", pane)
	}
	return strings.Join([]string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)}, "\n")
}
