package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/money"
	"github.com/lachiem1/estoque/internal/sales"
)

const submitTimeout = 20 * time.Second

const (
	saleFocusPaymentType = iota
	saleFocusCard
	saleFocusInstallments
	saleFocusCustomer
	saleFocusProduct
	saleFocusQuantity
	saleFocusPrice
	saleFocusItems
	saleFocusCount
)

type salesData struct {
	refs      *loader.SaleReferences
	customers []estoqueapi.Customer
}

type saleSubmittedMsg struct {
	sale *estoqueapi.Sale
	err  error
}

func loadSales(client *estoqueapi.Client) loader.LoadFunc {
	return func(ctx context.Context) (any, error) {
		var data salesData
		err := loader.FetchAll(ctx,
			func(ctx context.Context) error {
				refs, err := loader.LoadSaleReferences(ctx, client)
				data.refs = refs
				return err
			},
			func(ctx context.Context) error {
				customers, err := client.ListCustomers(ctx)
				if err != nil {
					return fmt.Errorf("load customers: %w", err)
				}
				data.customers = customers
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func (m model) applySalesData(data salesData) model {
	m.sale = sales.NewDraft(*data.refs, m.now())
	m.saleCustomers = data.customers
	m.saleCustomerIdx = 0
	m.saleProductIdx = 0
	m.saleItemCursor = 0
	m.saleErr = ""
	if types := m.sale.PaymentTypes(); len(types) > 0 {
		_ = m.sale.SelectPaymentType(types[0].ID)
	}
	return m
}

func (m model) salesKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	if m.sale == nil {
		return m, nil, false
	}
	if m.saleBusy {
		return m, nil, msg.String() != "esc"
	}
	d := m.sale
	products := d.Products()

	switch msg.String() {
	case "tab":
		m.saleFocus = (m.saleFocus + 1) % saleFocusCount
		return m, nil, true
	case "shift+tab":
		m.saleFocus = (m.saleFocus - 1 + saleFocusCount) % saleFocusCount
		return m, nil, true
	case "up":
		if m.saleFocus == saleFocusItems && m.saleItemCursor > 0 {
			m.saleItemCursor--
			return m, nil, true
		}
		m.saleFocus = max(0, m.saleFocus-1)
		return m, nil, true
	case "down":
		if m.saleFocus == saleFocusItems {
			m.saleItemCursor = clampCursor(m.saleItemCursor+1, len(d.Items()))
			return m, nil, true
		}
		m.saleFocus = min(saleFocusCount-1, m.saleFocus+1)
		return m, nil, true
	case "left", "right":
		step := 1
		if msg.String() == "left" {
			step = -1
		}
		switch m.saleFocus {
		case saleFocusPaymentType:
			d.CyclePaymentType(step)
		case saleFocusCard:
			d.CycleCard(step)
		case saleFocusInstallments:
			d.CycleInstallments(step)
		case saleFocusCustomer:
			m.saleCustomerIdx = (m.saleCustomerIdx + step + len(m.saleCustomers) + 1) % (len(m.saleCustomers) + 1)
		case saleFocusProduct:
			if len(products) > 0 {
				m.saleProductIdx = (m.saleProductIdx + step + len(products)) % len(products)
			}
		default:
			return m, nil, false
		}
		m.saleErr = ""
		return m, nil, true
	case "enter":
		switch m.saleFocus {
		case saleFocusProduct, saleFocusQuantity, saleFocusPrice:
			return m.addSaleItem(), nil, true
		}
		return m, nil, true
	case "backspace", "delete":
		switch m.saleFocus {
		case saleFocusQuantity:
			m.saleQty = trimLast(m.saleQty)
		case saleFocusPrice:
			m.salePrice = trimLast(m.salePrice)
		case saleFocusItems:
			d.RemoveItem(m.saleItemCursor)
			m.saleItemCursor = clampCursor(m.saleItemCursor, len(d.Items()))
		}
		return m, nil, true
	case "x":
		if m.saleFocus == saleFocusItems {
			d.RemoveItem(m.saleItemCursor)
			m.saleItemCursor = clampCursor(m.saleItemCursor, len(d.Items()))
			return m, nil, true
		}
	case "ctrl+s":
		return m.submitSale()
	}

	if msg.Type == tea.KeyRunes && (m.saleFocus == saleFocusQuantity || m.saleFocus == saleFocusPrice) {
		for _, ch := range msg.Runes {
			if ch < '0' || ch > '9' {
				continue
			}
			if m.saleFocus == saleFocusQuantity && len(m.saleQty) < 5 {
				m.saleQty += string(ch)
			}
			if m.saleFocus == saleFocusPrice && len(m.salePrice) < 12 {
				m.salePrice += string(ch)
			}
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m model) addSaleItem() model {
	products := m.sale.Products()
	if len(products) == 0 {
		m.saleErr = "Nenhum produto cadastrado."
		return m
	}
	qty := 1
	if m.saleQty != "" {
		qty, _ = strconv.Atoi(m.saleQty)
	}
	price := decimal.Zero
	if m.salePrice != "" {
		price = money.ParseMask(money.FormatMask(m.salePrice))
	}
	p := products[clampCursor(m.saleProductIdx, len(products))]
	if err := m.sale.AddItem(p.ID, qty, price); err != nil {
		m.saleErr = err.Error()
		return m
	}
	m.saleQty = ""
	m.salePrice = ""
	m.saleErr = ""
	m.saleItemCursor = len(m.sale.Items()) - 1
	return m
}

func (m model) submitSale() (model, tea.Cmd, bool) {
	d := m.sale
	d.CustomerID = ""
	if m.saleCustomerIdx > 0 && m.saleCustomerIdx <= len(m.saleCustomers) {
		d.CustomerID = m.saleCustomers[m.saleCustomerIdx-1].ID
	}
	if err := d.Validate(); err != nil {
		m.metrics.IncrValidationRejection("venda")
		if ve, ok := forms.First(err); ok {
			m.saleErr = ve.Message
		} else {
			m.saleErr = err.Error()
		}
		return m, nil, true
	}
	m.saleBusy = true
	m.saleErr = ""
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		sale, err := d.Submit(ctx, client)
		return saleSubmittedMsg{sale: sale, err: err}
	}, true
}

func (m model) handleSaleSubmitted(msg saleSubmittedMsg) (tea.Model, tea.Cmd) {
	m.saleBusy = false
	if msg.err != nil {
		m.saleErr = msg.err.Error()
		return m, nil
	}
	var total decimal.Decimal
	if m.sale != nil {
		total = m.sale.Total()
	}
	if msg.sale != nil && !msg.sale.Total.IsZero() {
		total = msg.sale.Total
	}
	return m.reloadWithFeedback(screenSales, "Venda registrada: "+money.FormatBRL(total))
}

func trimLast(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}

func (m model) renderSalesScreen(layoutWidth int) string {
	title := m.renderScreenTitle("vendas", layoutWidth)
	d := m.sale
	if d == nil {
		return title
	}

	fields := m.renderSaleFields()
	items := m.renderSaleItems()
	preview := renderSalePreview(d)

	leftWidth := max(40, min(layoutWidth/2, 60))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1)
	left := lipgloss.JoinVertical(lipgloss.Left,
		box.Width(leftWidth).Render(fields),
		box.Width(leftWidth).Render(items),
	)
	right := box.BorderForeground(lipgloss.Color("#FFD54A")).Width(max(34, min(layoutWidth-leftWidth-8, 48))).Render(preview)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	lines := []string{title, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, body)}
	if m.saleErr != "" {
		lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, errorText(m.saleErr)))
	}
	if m.saleBusy {
		lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("registrando venda...")))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderSaleFields() string {
	d := m.sale
	typeLabel := "(nenhum)"
	if pt, ok := d.PaymentType(); ok {
		typeLabel = pt.Description
	}
	cardLabel := "não se aplica"
	if fees.RequiresCard(d.Bucket()) {
		cardLabel = "(selecione)"
		if len(d.EligibleCards()) == 0 {
			cardLabel = "nenhum cartão elegível"
		}
		if c, ok := d.Card(); ok {
			cardLabel = c.Name
		}
	}
	installments := fmt.Sprintf("%dx", d.Installments())
	if len(d.Allowed()) > 1 {
		installments += fmt.Sprintf("  (%d a %dx)", d.Allowed()[0], d.Allowed()[len(d.Allowed())-1])
	}
	customer := "sem cliente"
	if m.saleCustomerIdx > 0 && m.saleCustomerIdx <= len(m.saleCustomers) {
		customer = m.saleCustomers[m.saleCustomerIdx-1].Name
	}
	product := "(nenhum produto)"
	if products := d.Products(); len(products) > 0 {
		p := products[clampCursor(m.saleProductIdx, len(products))]
		product = p.Name + " · " + money.FormatBRL(p.CurrentPrice())
		if p.Stock != nil {
			product += fmt.Sprintf(" · estoque %d", *p.Stock)
		}
	}
	qty := m.saleQty
	if qty == "" {
		qty = "1"
	}
	price := "preço atual"
	if m.salePrice != "" {
		price = "R$ " + money.FormatMask(m.salePrice)
	}

	rows := []struct {
		label string
		value string
	}{
		{"pagamento", typeLabel},
		{"cartão/conta", cardLabel},
		{"parcelas", installments},
		{"cliente", customer},
		{"produto", product},
		{"quantidade", qty},
		{"valor unit.", price},
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Width(13)
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		prefix := "  "
		value := r.value
		if i == m.saleFocus {
			prefix = "› "
			if i <= saleFocusProduct {
				value = "‹ " + value + " ›"
			}
			value = focusStyle.Render(value)
		}
		lines = append(lines, prefix+labelStyle.Render(r.label)+value)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderSaleItems() string {
	items := m.sale.Items()
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render("itens")
	if m.saleFocus == saleFocusItems {
		header = "› " + header
	}
	lines := []string{header}
	if len(items) == 0 {
		lines = append(lines, mutedText("nenhum item; escolha um produto e tecle enter"))
	}
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A"))
	for i, it := range items {
		row := fmt.Sprintf("%3dx %-22s %12s", it.Quantity, truncate(it.Name, 22), money.FormatBRL(it.Subtotal()))
		if m.saleFocus == saleFocusItems && i == m.saleItemCursor {
			row = selected.Render(row)
		}
		lines = append(lines, row)
	}
	lines = append(lines, "", fmt.Sprintf("total %s", lipgloss.NewStyle().Bold(true).Render(money.FormatBRL(m.sale.Total()))))
	return strings.Join(lines, "\n")
}

func renderSalePreview(d *sales.Draft) string {
	p := d.Preview()
	q := p.Quote
	head := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	rule := "sem regra, sem taxa"
	if p.HasRule {
		rule = fees.LabelFor(p.Rule.Tag)
	}
	lines := []string{
		head.Render("prévia"),
		fmt.Sprintf("forma       %s", p.Bucket),
		fmt.Sprintf("regra       %s", rule),
		fmt.Sprintf("bruto       %s", money.FormatBRL(q.Gross)),
		fmt.Sprintf("taxa        %s%%  %s", q.EffectivePercent.StringFixed(2), money.FormatBRL(q.TotalFee)),
		fmt.Sprintf("líquido     %s", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5CCB76")).Render(money.FormatBRL(q.NetTotal))),
	}
	if q.Installments > 1 {
		lines = append(lines,
			fmt.Sprintf("por parcela %s → %s", money.FormatBRL(q.GrossPerInstallment), money.FormatBRL(q.NetPerInstallment)),
		)
	}
	if len(p.Schedule) > 0 {
		lines = append(lines, "", head.Render("recebimentos"))
		for i, t := range p.Schedule {
			lines = append(lines, fmt.Sprintf("%2d. %s", i+1, t.Format("02/01/2006")))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
