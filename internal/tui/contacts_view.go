package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/estoque/internal/catalog"
	"github.com/lachiem1/estoque/internal/estoqueapi"
)

type contactSavedMsg struct {
	action string
	err    error
}

func (m model) contactCount() int {
	if m.screen == screenSuppliers {
		return len(m.suppliers)
	}
	return len(m.customers)
}

func (m model) contactsKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	key := msg.String()
	if key != "x" {
		m.confirmDelete = ""
	}
	switch key {
	case "up", "k":
		m.contactCursor = clampCursor(m.contactCursor-1, m.contactCount())
		return m, nil, true
	case "down", "j":
		m.contactCursor = clampCursor(m.contactCursor+1, m.contactCount())
		return m, nil, true
	case "a":
		if m.screen == screenSuppliers {
			m.form = newSupplierForm(estoqueapi.Supplier{})
		} else {
			m.form = newCustomerForm()
		}
		return m, nil, true
	case "e":
		if m.screen != screenSuppliers || len(m.suppliers) == 0 {
			return m, nil, true
		}
		m.form = newSupplierForm(m.suppliers[clampCursor(m.contactCursor, len(m.suppliers))])
		return m, nil, true
	case "x":
		if m.screen != screenSuppliers || len(m.suppliers) == 0 {
			return m, nil, true
		}
		s := m.suppliers[clampCursor(m.contactCursor, len(m.suppliers))]
		if m.confirmDelete != s.ID {
			m.confirmDelete = s.ID
			next, cmd := m.feedback("Pressione x novamente para excluir " + s.Name + ".")
			return next, cmd, true
		}
		m.confirmDelete = ""
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			return contactSavedMsg{action: "Fornecedor excluído.", err: client.DeleteSupplier(ctx, s.ID)}
		}, true
	}
	return m, nil, false
}

func newCustomerForm() formDialog {
	return formDialog{
		kind:  formNewCustomer,
		title: "Novo cliente",
		fields: []formField{
			{key: "name", label: "nome", kind: fieldText, limit: 80},
			{key: "phone", label: "telefone", kind: fieldNumber, limit: 11},
			{key: "email", label: "e-mail", kind: fieldText, limit: 120},
			{key: "notes", label: "observações", kind: fieldText, limit: 255},
		},
	}
}

// newSupplierForm opens the supplier dialog; an s with an ID edits it.
func newSupplierForm(s estoqueapi.Supplier) formDialog {
	title := "Novo fornecedor"
	if s.ID != "" {
		title = "Editar fornecedor"
	}
	return formDialog{
		kind:   formNewSupplier,
		title:  title,
		target: s.ID,
		fields: []formField{
			{key: "name", label: "nome", kind: fieldText, value: s.Name, limit: 80},
			{key: "address", label: "endereço", kind: fieldText, value: s.Address, limit: 120},
			{key: "phone", label: "telefone", kind: fieldNumber, value: digitsOnly(s.Phone), limit: 11},
			{key: "email", label: "e-mail", kind: fieldText, value: s.Email, limit: 120},
			{key: "notes", label: "observações", kind: fieldText, value: s.Notes, limit: 255},
			{key: "principal", label: "principal", kind: fieldToggle, on: s.Principal},
		},
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (m model) submitContactForm() (model, tea.Cmd) {
	form := catalog.ContactForm{
		Name:      m.form.text("name"),
		Phone:     m.form.text("phone"),
		Email:     m.form.text("email"),
		Notes:     m.form.text("notes"),
		Address:   m.form.text("address"),
		Principal: m.form.toggled("principal"),
	}
	client := m.client

	if m.form.kind == formNewCustomer {
		in, err := form.Customer()
		if err != nil {
			return m.rejectForm("cliente", err), nil
		}
		m.form.busy = true
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			_, err := client.CreateCustomer(ctx, in)
			return contactSavedMsg{action: "Cliente " + in.Name + " cadastrado.", err: err}
		}
	}

	in, err := form.Supplier()
	if err != nil {
		return m.rejectForm("fornecedor", err), nil
	}
	m.form.busy = true
	id := m.form.target
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		if id != "" {
			return contactSavedMsg{action: "Fornecedor " + in.Name + " atualizado.", err: client.UpdateSupplier(ctx, id, in)}
		}
		_, err := client.CreateSupplier(ctx, in)
		return contactSavedMsg{action: "Fornecedor " + in.Name + " cadastrado.", err: err}
	}
}

func (m model) handleContactSaved(msg contactSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form.active() {
			m.form.busy = false
			m.form.err = msg.err.Error()
		}
		return m, nil
	}
	m.form = formDialog{}
	if m.screen != screenCustomers && m.screen != screenSuppliers {
		return m.withCommandFeedback(msg.action)
	}
	return m.reloadWithFeedback(m.screen, msg.action)
}

func (m model) renderContactsScreen(layoutWidth int) string {
	suppliers := m.screen == screenSuppliers
	name := "clientes"
	if suppliers {
		name = "fornecedores"
	}
	title := m.renderScreenTitle(name, layoutWidth)

	if m.contactCount() == 0 {
		if m.loading {
			return title
		}
		return strings.Join([]string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("nenhum cadastro ainda"))}, "\n")
	}

	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	var rows []string
	if suppliers {
		rows = append(rows, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("  %-26s %-16s %-28s %s", "nome", "telefone", "e-mail", "")))
		for i, s := range m.suppliers {
			mark := ""
			if s.Principal {
				mark = "★"
			}
			row := fmt.Sprintf("%-26s %-16s %-28s %s", truncate(s.Name, 26), firstNonEmpty(s.Phone, "-"), truncate(firstNonEmpty(s.Email, "-"), 28), mark)
			rows = append(rows, contactRow(row, i == m.contactCursor, selected))
		}
	} else {
		rows = append(rows, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("  %-26s %-16s %-28s", "nome", "telefone", "e-mail")))
		for i, c := range m.customers {
			row := fmt.Sprintf("%-26s %-16s %-28s", truncate(c.Name, 26), firstNonEmpty(c.Phone, "-"), truncate(firstNonEmpty(c.Email, "-"), 28))
			rows = append(rows, contactRow(row, i == m.contactCursor, selected))
		}
	}

	list := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFD54A")).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
	return strings.Join([]string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, list)}, "\n")
}

func contactRow(row string, current bool, style lipgloss.Style) string {
	if current {
		return style.Render("> " + row)
	}
	return "  " + row
}
