package tui

import (
	"context"
	"fmt"
	"strconv"
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

const cardRuleWorkers = 4

const (
	cardsFocusList = iota
	cardsFocusRules
)

type cardsData struct {
	cards    []fees.CardAccount
	payments []estoqueapi.PurchasePayment
	rules    map[string][]fees.CardRule
}

type ruleSavedMsg struct {
	rule fees.CardRule
	err  error
}

type invoicePaidMsg struct {
	month string
	err   error
}

func loadCards(client *estoqueapi.Client) loader.LoadFunc {
	return func(ctx context.Context) (any, error) {
		data := cardsData{rules: map[string][]fees.CardRule{}}
		err := loader.FetchAll(ctx,
			func(ctx context.Context) error {
				cards, err := client.ListCardAccounts(ctx)
				if err != nil {
					return fmt.Errorf("load cards: %w", err)
				}
				data.cards = cards
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
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(data.cards))
		for _, c := range data.cards {
			ids = append(ids, c.ID)
		}
		rules, err := loader.FetchEach(ctx, ids, cardRuleWorkers, client.CardRules)
		if err != nil {
			return nil, fmt.Errorf("load card rules: %w", err)
		}
		for i, id := range ids {
			data.rules[id] = rules[i]
		}
		return data, nil
	}
}

func (m model) applyCardsData(data cardsData) model {
	m.cards = data.cards
	m.cardPayments = data.payments
	m.cardRules = data.rules
	m.cardCursor = clampCursor(m.cardCursor, len(m.cards))
	m.cardErr = ""
	return m
}

func (m model) selectedCard() (fees.CardAccount, bool) {
	if len(m.cards) == 0 {
		return fees.CardAccount{}, false
	}
	return m.cards[clampCursor(m.cardCursor, len(m.cards))], true
}

func (m model) selectedCardRules() []fees.CardRule {
	card, ok := m.selectedCard()
	if !ok {
		return nil
	}
	return fees.FillRuleSet(card.ID, m.cardRules[card.ID])
}

func (m model) cardExtract() ([]estoqueapi.PurchasePayment, ledger.ExtractSummary) {
	card, ok := m.selectedCard()
	if !ok {
		return nil, ledger.Summarize(nil)
	}
	rows := ledger.FilterExtract(m.cardPayments, card.ID, m.cardMonth, "", m.now())
	return rows, ledger.Summarize(rows)
}

func (m model) cardsKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	switch msg.String() {
	case "tab":
		if m.cardFocus == cardsFocusList {
			m.cardFocus = cardsFocusRules
		} else {
			m.cardFocus = cardsFocusList
		}
		return m, nil, true
	case "esc":
		if m.cardFocus == cardsFocusRules {
			m.cardFocus = cardsFocusList
			return m, nil, true
		}
	case "up", "k":
		if m.cardFocus == cardsFocusList {
			m.cardCursor = clampCursor(m.cardCursor-1, len(m.cards))
		} else {
			m.cardRuleIdx = clampCursor(m.cardRuleIdx-1, len(fees.RuleTags))
		}
		return m, nil, true
	case "down", "j":
		if m.cardFocus == cardsFocusList {
			m.cardCursor = clampCursor(m.cardCursor+1, len(m.cards))
		} else {
			m.cardRuleIdx = clampCursor(m.cardRuleIdx+1, len(fees.RuleTags))
		}
		return m, nil, true
	case "[", "]":
		delta := 1
		if msg.String() == "[" {
			delta = -1
		}
		month, err := ledger.ShiftMonth(m.cardMonth, delta)
		if err != nil {
			m.cardErr = err.Error()
			return m, nil, true
		}
		m.cardMonth = month
		m.cardErr = ""
		return m, nil, true
	case "enter":
		if m.cardFocus == cardsFocusList {
			m.cardFocus = cardsFocusRules
			return m, nil, true
		}
		rules := m.selectedCardRules()
		if len(rules) == 0 {
			return m, nil, true
		}
		m.form = newRuleForm(rules[clampCursor(m.cardRuleIdx, len(rules))])
		return m, nil, true
	case "p":
		card, ok := m.selectedCard()
		if !ok || m.cardPayBusy {
			return m, nil, true
		}
		if _, summary := m.cardExtract(); !summary.HasPending() {
			next, cmd := m.feedback("Nada pendente em " + m.cardMonth + ".")
			return next, cmd, true
		}
		m.cardPayBusy = true
		in := ledger.InvoicePayment(card.ID, m.cardMonth, m.now())
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			return invoicePaidMsg{month: in.Month, err: client.PayInvoice(ctx, in)}
		}, true
	}
	return m, nil, false
}

func newRuleForm(rule fees.CardRule) formDialog {
	days := ""
	if rule.SettlementDays > 0 {
		days = strconv.Itoa(rule.SettlementDays)
	}
	return formDialog{
		kind:   formCardRule,
		title:  "Regra: " + fees.LabelFor(rule.Tag),
		target: rule.CardID + "|" + rule.Tag,
		fields: []formField{
			{key: "percent", label: "taxa %", kind: fieldPercent, value: digitsOfValue(rule.PercentFee), limit: 5},
			{key: "fixed", label: "taxa fixa", kind: fieldMoney, value: digitsOfValue(rule.FixedFee), limit: 9},
			{key: "surcharge", label: "adicional/parcela %", kind: fieldPercent, value: digitsOfValue(rule.PerInstallmentSurcharge), limit: 5},
			{key: "days", label: "prazo (dias)", kind: fieldNumber, value: days, limit: 3},
			{key: "stepped", label: "escalonado", kind: fieldToggle, on: rule.SteppedSettlement},
		},
	}
}

// digitsOfValue is v in the raw-digits form the masked fields edit.
func digitsOfValue(v decimal.Decimal) string {
	if v.IsZero() {
		return ""
	}
	return strings.TrimLeft(strings.ReplaceAll(money.CentsMaskFromValue(v), ".", ""), "0")
}

func (m model) submitRuleForm() (model, tea.Cmd) {
	cardID, tag, _ := strings.Cut(m.form.target, "|")
	rule := fees.CardRule{
		CardID:                  cardID,
		Tag:                     tag,
		PercentFee:              money.ParseMask(m.form.mask("percent")),
		FixedFee:                money.ParseMask(m.form.mask("fixed")),
		PerInstallmentSurcharge: money.ParseMask(m.form.mask("surcharge")),
		SettlementDays:          m.form.number("days"),
		SteppedSettlement:       m.form.toggled("stepped"),
	}
	m.form.busy = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return ruleSavedMsg{rule: rule, err: client.SaveCardRule(ctx, rule)}
	}
}

func (m model) handleRuleSaved(msg ruleSavedMsg) (tea.Model, tea.Cmd) {
	m.form.busy = false
	if msg.err != nil {
		if m.form.kind == formCardRule {
			m.form.err = msg.err.Error()
		}
		return m, nil
	}
	m.form = formDialog{}
	rules := m.cardRules[msg.rule.CardID]
	updated := make([]fees.CardRule, 0, len(rules)+1)
	for _, r := range rules {
		if r.Tag != msg.rule.Tag {
			updated = append(updated, r)
		}
	}
	m.cardRules[msg.rule.CardID] = append(updated, msg.rule)
	return m.withCommandFeedback("Regra salva: " + fees.LabelFor(msg.rule.Tag))
}

func (m model) handleInvoicePaid(msg invoicePaidMsg) (tea.Model, tea.Cmd) {
	m.cardPayBusy = false
	if msg.err != nil {
		m.cardErr = msg.err.Error()
		return m, nil
	}
	return m.reloadWithFeedback(screenCards, "Fatura de "+msg.month+" paga.")
}

func (m model) renderCardsScreen(layoutWidth int) string {
	title := m.renderScreenTitle("cartões", layoutWidth)
	if len(m.cards) == 0 {
		if m.loading {
			return title
		}
		return strings.Join([]string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("nenhum cartão ou conta cadastrado"))}, "\n")
	}

	listStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Width(30)
	if m.cardFocus == cardsFocusList {
		listStyle = listStyle.BorderForeground(lipgloss.Color("#FFD54A"))
	}
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	cardLines := make([]string, 0, len(m.cards))
	for i, c := range m.cards {
		flags := []string{}
		if c.PIXEligible() {
			flags = append(flags, "pix")
		}
		if c.CreditEligible() {
			flags = append(flags, "crédito")
		}
		name := "  " + truncate(c.Name, 18)
		if i == m.cardCursor {
			name = selected.Render("> " + truncate(c.Name, 18))
		}
		if len(flags) > 0 {
			name += " " + mutedText("("+strings.Join(flags, ", ")+")")
		}
		cardLines = append(cardLines, name)
	}
	list := listStyle.Render(strings.Join(cardLines, "\n"))

	ruleStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1)
	if m.cardFocus == cardsFocusRules {
		ruleStyle = ruleStyle.BorderForeground(lipgloss.Color("#FFD54A"))
	}
	ruleLines := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%-18s %7s %10s %7s %5s", "regra", "taxa", "fixa", "adic.", "dias"))}
	for i, r := range m.selectedCardRules() {
		days := strconv.Itoa(r.SettlementDays)
		if r.SteppedSettlement {
			days += "*"
		}
		row := fmt.Sprintf("%-18s %6s%% %10s %6s%% %5s",
			fees.LabelFor(r.Tag),
			r.PercentFee.StringFixed(2),
			money.FormatBRL(r.FixedFee),
			r.PerInstallmentSurcharge.StringFixed(2),
			days,
		)
		if m.cardFocus == cardsFocusRules && i == m.cardRuleIdx {
			row = selected.Render(row)
		}
		ruleLines = append(ruleLines, row)
	}
	ruleLines = append(ruleLines, mutedText("* prazo escalonado por parcela"))
	rulesBox := ruleStyle.Render(strings.Join(ruleLines, "\n"))

	rows, summary := m.cardExtract()
	extractLines := []string{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("extrato " + m.cardMonth),
	}
	if len(rows) == 0 {
		extractLines = append(extractLines, mutedText("nenhum lançamento no mês"))
	}
	for _, p := range rows {
		purchase := "-"
		if p.Purchase != nil {
			purchase = firstNonEmpty(p.Purchase.Name, p.Purchase.Description, p.Purchase.ID)
		}
		status := p.Status
		if status == estoqueapi.PaymentStatusPaid {
			status = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76")).Render(status)
		}
		extractLines = append(extractLines, fmt.Sprintf("%-10s %-16s %2d  %12s  %s",
			shortDate(firstNonEmpty(p.DueDate, p.PaidAt)), truncate(purchase, 16), p.Number, money.FormatBRL(p.Value), status))
	}
	extractLines = append(extractLines,
		"",
		fmt.Sprintf("total %s · pago %s · pendente %s",
			money.FormatBRL(summary.Total), money.FormatBRL(summary.Paid),
			lipgloss.NewStyle().Bold(true).Render(money.FormatBRL(summary.Pending))),
	)
	if m.cardPayBusy {
		extractLines = append(extractLines, mutedText("pagando fatura..."))
	}
	extractBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Render(strings.Join(extractLines, "\n"))

	right := lipgloss.JoinVertical(lipgloss.Left, rulesBox, extractBox)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", right)
	lines := []string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)}
	if m.cardErr != "" {
		lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, errorText(m.cardErr)))
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// shortDate renders the date part of an API timestamp as DD/MM/YYYY.
func shortDate(s string) string {
	if len(s) < 10 {
		return s
	}
	y, mo, d := s[0:4], s[5:7], s[8:10]
	return d + "/" + mo + "/" + y
}
