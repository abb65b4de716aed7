package tui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go.uber.org/zap"

	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/ledger"
	"github.com/lachiem1/estoque/internal/money"
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldMoney
	fieldPercent
	fieldNumber
	fieldChoice
	fieldToggle
)

type choice struct {
	id    string
	label string
}

// formField keeps money, percent and number values as raw digits; the
// mask is applied when rendering and reading.
type formField struct {
	key     string
	label   string
	kind    fieldKind
	value   string
	limit   int
	options []choice
	index   int
	on      bool
}

func (f formField) display() string {
	switch f.kind {
	case fieldMoney:
		return "R$ " + money.FormatMask(f.value)
	case fieldPercent:
		return money.FormatCentsMask(f.value) + " %"
	case fieldChoice:
		if len(f.options) == 0 {
			return "(nenhum)"
		}
		return "‹ " + f.options[f.index].label + " ›"
	case fieldToggle:
		if f.on {
			return "[x]"
		}
		return "[ ]"
	default:
		return f.value
	}
}

func (f formField) selected() string {
	if f.kind != fieldChoice || len(f.options) == 0 {
		return ""
	}
	return f.options[f.index].id
}

type formKind int

const (
	formNone formKind = iota
	formNewProduct
	formProductPrice
	formNewCustomer
	formNewSupplier
	formNewPurchase
	formNewExpense
	formCardRule
	formNewCatalog
)

// formDialog is the modal used for every create and edit action.
type formDialog struct {
	kind   formKind
	title  string
	target string
	fields []formField
	focus  int
	err    string
	busy   bool
}

func (d formDialog) active() bool {
	return d.kind != formNone
}

func (d *formDialog) field(key string) *formField {
	for i := range d.fields {
		if d.fields[i].key == key {
			return &d.fields[i]
		}
	}
	return nil
}

func (d formDialog) text(key string) string {
	if f := d.field(key); f != nil {
		return strings.TrimSpace(f.value)
	}
	return ""
}

// mask returns a money or percent field in the form money.ParseMask reads.
func (d formDialog) mask(key string) string {
	f := d.field(key)
	if f == nil {
		return ""
	}
	if f.kind == fieldPercent {
		return money.FormatCentsMask(f.value)
	}
	return money.FormatMask(f.value)
}

func (d formDialog) number(key string) int {
	n, _ := strconv.Atoi(d.text(key))
	return n
}

func (d formDialog) choiceID(key string) string {
	if f := d.field(key); f != nil {
		return f.selected()
	}
	return ""
}

func (d formDialog) toggled(key string) bool {
	if f := d.field(key); f != nil {
		return f.on
	}
	return false
}

// setOptions replaces a choice field's options and keeps the current
// selection when it is still offered.
func (d *formDialog) setOptions(key string, options []choice) {
	f := d.field(key)
	if f == nil {
		return
	}
	current := f.selected()
	f.options = options
	f.index = 0
	for i, o := range options {
		if o.id == current {
			f.index = i
			break
		}
	}
}

// showError puts the first validation message of err on the dialog.
func (d *formDialog) showError(err error) {
	if ve, ok := forms.First(err); ok {
		d.err = ve.Message
		return
	}
	d.err = err.Error()
}

// handleKey applies msg to the focused field. submit and cancel report
// enter and esc.
func (d *formDialog) handleKey(msg tea.KeyMsg) (submit, cancel bool) {
	if d.busy {
		return false, msg.String() == "esc"
	}
	if len(d.fields) == 0 {
		switch msg.String() {
		case "enter":
			return true, false
		case "esc":
			return false, true
		}
		return false, false
	}
	f := &d.fields[d.focus]
	switch msg.String() {
	case "esc":
		return false, true
	case "enter":
		return true, false
	case "tab", "down":
		d.focus = (d.focus + 1) % len(d.fields)
		return false, false
	case "shift+tab", "up":
		d.focus = (d.focus - 1 + len(d.fields)) % len(d.fields)
		return false, false
	case "left":
		if f.kind == fieldChoice && len(f.options) > 0 {
			f.index = (f.index - 1 + len(f.options)) % len(f.options)
			d.err = ""
		}
		return false, false
	case "right":
		if f.kind == fieldChoice && len(f.options) > 0 {
			f.index = (f.index + 1) % len(f.options)
			d.err = ""
		}
		return false, false
	case "backspace", "delete":
		if r := []rune(f.value); len(r) > 0 {
			f.value = string(r[:len(r)-1])
			d.err = ""
		}
		return false, false
	case " ":
		if f.kind == fieldToggle {
			f.on = !f.on
			return false, false
		}
		if f.kind == fieldText {
			f.value = appendLimited(f.value, " ", f.limit)
		}
		return false, false
	}

	if msg.Type != tea.KeyRunes {
		return false, false
	}
	for _, ch := range msg.Runes {
		switch f.kind {
		case fieldText:
			f.value = appendLimited(f.value, string(ch), f.limit)
		case fieldMoney, fieldPercent, fieldNumber:
			if ch >= '0' && ch <= '9' {
				f.value = appendLimited(f.value, string(ch), f.limit)
			}
		}
	}
	d.err = ""
	return false, false
}

func appendLimited(value, s string, limit int) string {
	if limit > 0 && len([]rune(value)) >= limit {
		return value
	}
	return value + s
}

func (d formDialog) render(maxWidth int) string {
	panelWidth := min(maxWidth-6, 72)
	panelWidth = max(44, panelWidth)

	labelWidth := 0
	for _, f := range d.fields {
		labelWidth = max(labelWidth, len([]rune(f.label)))
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)

	lines := []string{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#5FA8FF")).Bold(true).Render(d.title),
		"",
	}
	for i, f := range d.fields {
		prefix := "  "
		vs := valueStyle
		if i == d.focus {
			prefix = "› "
			vs = focusStyle
		}
		label := f.label + strings.Repeat(" ", labelWidth-len([]rune(f.label)))
		value := f.display()
		if i == d.focus && (f.kind == fieldText || f.kind == fieldNumber) {
			value += "_"
		}
		lines = append(lines, prefix+labelStyle.Render(label)+"  "+vs.Render(value))
	}
	if strings.TrimSpace(d.err) != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render(d.err))
	}
	footer := "Enter to save, Tab to move, ←/→ to choose, Esc to cancel"
	if d.busy {
		footer = "saving..."
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render(footer))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(strings.Join(lines, "\n"))
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.form.choiceID("type")
	submit, cancel := m.form.handleKey(msg)
	if cancel {
		m.form = formDialog{}
		return m, nil
	}
	if m.form.kind == formNewExpense && m.form.choiceID("type") != before {
		m.form.setOptions("card", cardChoices(ledger.EligibleCards(m.paymentType(m.form.choiceID("type")), m.refs.cards)))
	}
	if !submit {
		return m, nil
	}

	switch m.form.kind {
	case formNewProduct:
		return m.submitProductForm()
	case formProductPrice:
		return m.submitPriceForm()
	case formNewCatalog:
		return m.submitCatalogForm()
	case formCardRule:
		return m.submitRuleForm()
	case formNewPurchase:
		return m.submitPurchaseForm()
	case formNewExpense:
		return m.submitExpenseForm()
	case formNewCustomer, formNewSupplier:
		return m.submitContactForm()
	}
	return m, nil
}

// rejectForm records a validation failure and shows it on the dialog.
func (m model) rejectForm(name string, err error) model {
	m.metrics.IncrValidationRejection(name)
	m.logger.Debug("form rejected", zap.String("form", name), zap.Error(err))
	m.form.showError(err)
	return m
}
