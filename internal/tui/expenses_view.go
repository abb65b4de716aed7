package tui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/ledger"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/money"
)

type expensesData struct {
	expenses []estoqueapi.Expense
	refs     ledgerRefs
}

type expenseSavedMsg struct {
	err error
}

type expenseDetailMsg struct {
	expense *estoqueapi.Expense
	err     error
}

func loadExpenses(client *estoqueapi.Client, query url.Values) loader.LoadFunc {
	return func(ctx context.Context) (any, error) {
		var data expensesData
		fetches := append(ledgerRefFetches(client, &data.refs, false),
			func(ctx context.Context) error {
				expenses, err := client.ListExpenses(ctx, query)
				if err != nil {
					return fmt.Errorf("load expenses: %w", err)
				}
				data.expenses = expenses
				return nil
			},
		)
		if err := loader.FetchAll(ctx, fetches...); err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (m model) applyExpensesData(data expensesData) model {
	m.expenses = data.expenses
	m.refs = data.refs
	m.expenseCursor = clampCursor(m.expenseCursor, len(m.expenses))
	return m
}

func (m model) paymentType(id string) fees.PaymentType {
	for _, pt := range m.refs.paymentTypes {
		if pt.ID == id {
			return pt
		}
	}
	return fees.PaymentType{}
}

// expenseStatuses is the status filter cycle; the empty entry means any.
func (m model) expenseStatuses() []string {
	return append([]string{""}, ledger.StatusOptions(m.expenses)...)
}

func (m model) expensesKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	if m.expenseDetail != nil {
		switch msg.String() {
		case "esc", "enter":
			m.expenseDetail = nil
			return m, nil, true
		}
		return m, nil, false
	}

	switch msg.String() {
	case "up", "k":
		m.expenseCursor = clampCursor(m.expenseCursor-1, len(m.expenses))
		return m, nil, true
	case "down", "j":
		m.expenseCursor = clampCursor(m.expenseCursor+1, len(m.expenses))
		return m, nil, true
	case "f":
		statuses := m.expenseStatuses()
		m.expenseStatusIdx = (m.expenseStatusIdx + 1) % len(statuses)
		m.expenseFilter.Status = statuses[m.expenseStatusIdx]
		m.expenseCursor = 0
		next, cmd := m.enterScreen(screenExpenses)
		return next, cmd, true
	case "enter":
		if len(m.expenses) == 0 {
			return m, nil, true
		}
		id := m.expenses[clampCursor(m.expenseCursor, len(m.expenses))].ID
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			expense, err := client.GetExpense(ctx, id)
			return expenseDetailMsg{expense: expense, err: err}
		}, true
	case "a":
		m.form = m.newExpenseForm()
		return m, nil, true
	}
	return m, nil, false
}

func (m model) newExpenseForm() formDialog {
	types := paymentTypeChoices(m.refs.paymentTypes)
	var first fees.PaymentType
	if len(m.refs.paymentTypes) > 0 {
		first = m.refs.paymentTypes[0]
	}
	return formDialog{
		kind:  formNewExpense,
		title: "Novo gasto",
		fields: []formField{
			{key: "description", label: "descrição", kind: fieldText, limit: 120},
			{key: "supplier", label: "fornecedor", kind: fieldChoice, options: supplierChoices(m.refs.suppliers, "(nenhum)")},
			{key: "type", label: "pagamento", kind: fieldChoice, options: types},
			{key: "card", label: "cartão/conta", kind: fieldChoice, options: cardChoices(ledger.EligibleCards(first, m.refs.cards))},
			{key: "installments", label: "parcelas", kind: fieldNumber, value: "1", limit: 2},
			{key: "total", label: "valor", kind: fieldMoney, limit: 12},
			{key: "notes", label: "observações", kind: fieldText, limit: 255},
		},
	}
}

func (m model) submitExpenseForm() (model, tea.Cmd) {
	form := ledger.NewExpenseForm(m.now())
	form.Description = m.form.text("description")
	form.SupplierID = m.form.choiceID("supplier")
	form.SelectPaymentType(m.paymentType(m.form.choiceID("type")))
	if ledger.RequiresCard(form.PaymentType) {
		form.CardAccountID = m.form.choiceID("card")
	}
	form.Installments = m.form.number("installments")
	form.BaseMask = m.form.mask("total")
	form.Notes = m.form.text("notes")
	form.Items = nil
	if err := form.Validate(); err != nil {
		return m.rejectForm("gasto", err), nil
	}
	in := form.Request()
	m.form.busy = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return expenseSavedMsg{err: client.CreateExpense(ctx, in)}
	}
}

func (m model) handleExpenseSaved(msg expenseSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form.active() {
			m.form.busy = false
			m.form.err = msg.err.Error()
		}
		return m, nil
	}
	m.form = formDialog{}
	return m.reloadWithFeedback(screenExpenses, "Gasto registrado.")
}

func (m model) handleExpenseDetail(msg expenseDetailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || m.screen != screenExpenses {
		return m, nil
	}
	m.expenseDetail = msg.expense
	return m, nil
}

func (m model) renderExpensesScreen(layoutWidth int) string {
	title := m.renderScreenTitle("gastos", layoutWidth)
	status := m.expenseFilter.Status
	if status == "" {
		status = "todos"
	}
	filter := mutedText(fmt.Sprintf("%s a %s  status: %s", shortDate(m.expenseFilter.From), shortDate(m.expenseFilter.To), status))
	lines := []string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, filter)}

	if m.expenseDetail != nil {
		return strings.Join(append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, renderExpenseDetail(*m.expenseDetail))), "\n")
	}
	if len(m.expenses) == 0 {
		if !m.loading {
			lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("nenhum gasto no período")))
		}
		return strings.Join(lines, "\n")
	}

	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	rows := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("  %-10s %-24s %-16s %4s %12s  %s", "data", "descrição", "pagamento", "parc", "total", "status"))}
	total := decimal.Zero
	for i, e := range m.expenses {
		total = total.Add(e.Total)
		row := fmt.Sprintf("%-10s %-24s %-16s %4d %12s  %s",
			shortDate(e.Date),
			truncate(firstNonEmpty(e.Description, refName(e.Supplier)), 24),
			truncate(refName(&e.PaymentType), 16),
			max(1, e.Installments),
			money.FormatBRL(e.Total),
			e.Status,
		)
		if i == m.expenseCursor {
			row = selected.Render("> " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	rows = append(rows, "", fmt.Sprintf("  %d gastos, total %s", len(m.expenses), money.FormatBRL(total)))
	list := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFD54A")).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
	return strings.Join(append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, list)), "\n")
}

func renderExpenseDetail(e estoqueapi.Expense) string {
	head := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	lines := []string{
		head.Render(firstNonEmpty(e.Description, "gasto")),
		fmt.Sprintf("data: %s  fornecedor: %s", shortDate(e.Date), refName(e.Supplier)),
		fmt.Sprintf("pagamento: %s  cartão/conta: %s", refName(&e.PaymentType), refName(e.CardAccount)),
		fmt.Sprintf("total: %s  status: %s", money.FormatBRL(e.Total), e.Status),
	}
	if note := firstNonEmpty(e.Notes, e.Note); note != "" {
		lines = append(lines, mutedText(note))
	}
	if len(e.Items) > 0 {
		lines = append(lines, "", head.Render("itens"))
		for _, it := range e.Items {
			qty := 1
			if it.Quantity != nil {
				qty = *it.Quantity
			}
			value := ""
			if it.Total != nil {
				value = money.FormatBRL(*it.Total)
			} else if it.UnitValue != nil {
				value = money.FormatBRL(*it.UnitValue)
			}
			lines = append(lines, fmt.Sprintf("%3dx %-28s %12s", qty, truncate(firstNonEmpty(it.Description, "Item"), 28), value))
		}
	}
	if len(e.Payments) > 0 {
		lines = append(lines, "", head.Render("parcelas"))
		for _, p := range e.Payments {
			lines = append(lines, fmt.Sprintf("%2d  %-10s %12s  %s", p.Number, shortDate(p.DueDate), money.FormatBRL(p.Value), p.Status))
		}
	}
	lines = append(lines, "", mutedText("esc para voltar"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFD54A")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
