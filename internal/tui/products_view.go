package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lachiem1/estoque/internal/catalog"
	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/money"
)

type productsData struct {
	page     *estoqueapi.ProductPage
	catalogs map[estoqueapi.CatalogKind][]estoqueapi.Option
}

type productSavedMsg struct {
	action string
	err    error
}

func loadProducts(client *estoqueapi.Client, filter estoqueapi.ProductFilter) loader.LoadFunc {
	return func(ctx context.Context) (any, error) {
		data := productsData{}
		kinds := estoqueapi.CatalogKinds
		var lists [][]estoqueapi.Option
		err := loader.FetchAll(ctx,
			func(ctx context.Context) error {
				page, err := client.ListProducts(ctx, filter)
				if err != nil {
					return fmt.Errorf("load products: %w", err)
				}
				data.page = page
				return nil
			},
			func(ctx context.Context) error {
				ids := make([]string, 0, len(kinds))
				for _, k := range kinds {
					ids = append(ids, string(k))
				}
				var err error
				lists, err = loader.FetchEach(ctx, ids, len(ids), func(ctx context.Context, id string) ([]estoqueapi.Option, error) {
					return client.ListCatalog(ctx, estoqueapi.CatalogKind(id))
				})
				if err != nil {
					return fmt.Errorf("load catalogs: %w", err)
				}
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
		data.catalogs = make(map[estoqueapi.CatalogKind][]estoqueapi.Option, len(kinds))
		for i, kind := range kinds {
			data.catalogs[kind] = lists[i]
		}
		return data, nil
	}
}

func (m model) applyProductsData(data productsData) model {
	m.productPage = data.page
	m.productCatalogs = data.catalogs
	m.productHasMore = catalog.HasMore(data.page, m.productPageNum)
	if data.page != nil && data.page.Page > 0 {
		m.productPageNum = data.page.Page
	}
	n := 0
	if data.page != nil {
		n = len(data.page.Items)
	}
	m.productCursor = clampCursor(m.productCursor, n)
	return m
}

func (m model) selectedProduct() (estoqueapi.Product, bool) {
	if m.productPage == nil || len(m.productPage.Items) == 0 {
		return estoqueapi.Product{}, false
	}
	return m.productPage.Items[clampCursor(m.productCursor, len(m.productPage.Items))], true
}

func (m model) productsKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	if m.productSearchActive {
		switch msg.String() {
		case "esc":
			m.productSearchActive = false
			m.productSearch.SetValue(m.productQuery)
			m.productSearch.Blur()
			return m, nil, true
		case "enter":
			m.productSearchActive = false
			m.productSearch.Blur()
			m.productQuery = strings.TrimSpace(m.productSearch.Value())
			m.productPageNum = 1
			m.productCursor = 0
			next, cmd := m.enterScreen(screenProducts)
			return next, cmd, true
		}
		var cmd tea.Cmd
		m.productSearch, cmd = m.productSearch.Update(msg)
		return m, cmd, true
	}

	switch msg.String() {
	case "up", "k":
		m.productCursor = max(0, m.productCursor-1)
		m.confirmDelete = ""
		return m, nil, true
	case "down", "j":
		if m.productPage != nil {
			m.productCursor = clampCursor(m.productCursor+1, len(m.productPage.Items))
		}
		m.confirmDelete = ""
		return m, nil, true
	case "right", "l":
		if !m.productHasMore || m.loading {
			return m, nil, true
		}
		m.productPageNum++
		m.productCursor = 0
		next, cmd := m.enterScreen(screenProducts)
		return next, cmd, true
	case "left", "h":
		if m.productPageNum <= 1 || m.loading {
			return m, nil, true
		}
		m.productPageNum--
		m.productCursor = 0
		next, cmd := m.enterScreen(screenProducts)
		return next, cmd, true
	case "s":
		m.productSearchActive = true
		m.productSearch.SetValue(m.productQuery)
		m.productSearch.CursorEnd()
		m.productSearch.Focus()
		return m, nil, true
	case "a":
		m.form = m.newProductForm()
		return m, nil, true
	case "c":
		m.form = newCatalogForm()
		return m, nil, true
	case "$":
		p, ok := m.selectedProduct()
		if !ok {
			return m, nil, true
		}
		m.form = formDialog{
			kind:   formProductPrice,
			title:  "Novo preço: " + p.Name,
			target: p.ID,
			fields: []formField{
				{key: "price", label: "preço de venda", kind: fieldMoney, value: digitsOfValue(p.CurrentPrice()), limit: 12},
			},
		}
		return m, nil, true
	case "x":
		p, ok := m.selectedProduct()
		if !ok {
			return m, nil, true
		}
		if m.confirmDelete != p.ID {
			m.confirmDelete = p.ID
			next, cmd := m.feedback("Tecle x de novo para excluir " + p.Name + ".")
			return next, cmd, true
		}
		m.confirmDelete = ""
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			return productSavedMsg{action: "Produto excluído.", err: client.DeleteProduct(ctx, p.ID)}
		}, true
	}
	return m, nil, false
}

func catalogChoices(options []estoqueapi.Option) []choice {
	out := []choice{{id: "", label: "(nenhum)"}}
	for _, o := range options {
		label := o.Name
		if o.Code != "" {
			label += " (" + o.Code + ")"
		}
		out = append(out, choice{id: o.ID, label: label})
	}
	return out
}

func (m model) newProductForm() formDialog {
	return formDialog{
		kind:  formNewProduct,
		title: "Novo produto",
		fields: []formField{
			{key: "name", label: "nome", kind: fieldText, limit: 80},
			{key: "type", label: "tipo", kind: fieldChoice, options: catalogChoices(m.productCatalogs[estoqueapi.CatalogTypes])},
			{key: "color", label: "cor", kind: fieldChoice, options: catalogChoices(m.productCatalogs[estoqueapi.CatalogColors])},
			{key: "material", label: "material", kind: fieldChoice, options: catalogChoices(m.productCatalogs[estoqueapi.CatalogMaterials])},
			{key: "size", label: "tamanho", kind: fieldChoice, options: catalogChoices(m.productCatalogs[estoqueapi.CatalogSizes])},
			{key: "price", label: "preço de venda", kind: fieldMoney, limit: 12},
			{key: "note", label: "observação", kind: fieldText, limit: 255},
		},
	}
}

func newCatalogForm() formDialog {
	kinds := make([]choice, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		kinds = append(kinds, choice{id: string(c.Kind), label: c.Label})
	}
	return formDialog{
		kind:  formNewCatalog,
		title: "Novo cadastro auxiliar",
		fields: []formField{
			{key: "kind", label: "cadastro", kind: fieldChoice, options: kinds},
			{key: "name", label: "nome", kind: fieldText, limit: 60},
			{key: "code", label: "código", kind: fieldText, limit: 10},
		},
	}
}

func (m model) submitProductForm() (model, tea.Cmd) {
	form := catalog.ProductForm{
		Name:       m.form.text("name"),
		TypeID:     m.form.choiceID("type"),
		ColorID:    m.form.choiceID("color"),
		MaterialID: m.form.choiceID("material"),
		SizeID:     m.form.choiceID("size"),
		Note:       m.form.text("note"),
		PriceMask:  m.form.mask("price"),
	}
	in, err := form.Request()
	if err != nil {
		return m.rejectForm("produto", err), nil
	}
	m.form.busy = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		_, err := client.CreateProduct(ctx, in)
		return productSavedMsg{action: "Produto cadastrado.", err: err}
	}
}

func (m model) submitPriceForm() (model, tea.Cmd) {
	in, err := catalog.PriceChange(m.form.mask("price"))
	if err != nil {
		return m.rejectForm("preco", err), nil
	}
	m.form.busy = true
	client := m.client
	id := m.form.target
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return productSavedMsg{action: "Preço atualizado.", err: client.SetProductPrice(ctx, id, in)}
	}
}

func (m model) submitCatalogForm() (model, tea.Cmd) {
	kind := estoqueapi.CatalogKind(m.form.choiceID("kind"))
	in, err := catalog.CatalogEntry(kind, m.form.text("name"), m.form.text("code"))
	if err != nil {
		return m.rejectForm("cadastro", err), nil
	}
	cat, _ := catalog.CategoryFor(kind)
	m.form.busy = true
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return productSavedMsg{action: "Cadastro salvo em " + cat.Label + ".", err: client.CreateCatalog(ctx, kind, in)}
	}
}

func (m model) handleProductSaved(msg productSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form.active() {
			m.form.busy = false
			m.form.err = msg.err.Error()
		}
		return m, nil
	}
	m.form = formDialog{}
	return m.reloadWithFeedback(screenProducts, msg.action)
}

func optionName(o *estoqueapi.Option) string {
	if o == nil {
		return "-"
	}
	return o.Name
}

func (m model) renderProductsScreen(layoutWidth int) string {
	title := m.renderScreenTitle("produtos", layoutWidth)
	lines := []string{title}

	search := "busca: " + firstNonEmpty(m.productQuery, "(todas)")
	if m.productSearchActive {
		search = m.productSearch.View()
	}
	lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, search))

	if m.productPage == nil || len(m.productPage.Items) == 0 {
		if !m.loading {
			lines = append(lines, "", lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText("nenhum produto encontrado")))
		}
		return strings.Join(lines, "\n")
	}

	header := fmt.Sprintf("%-8s %-28s %-12s %-10s %-8s %12s %7s", "código", "nome", "tipo", "cor", "tam.", "preço", "estoque")
	rows := []string{lipgloss.NewStyle().Bold(true).Render(header)}
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	low := lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B"))
	for i, p := range m.productPage.Items {
		stock := "-"
		if p.Stock != nil {
			stock = fmt.Sprintf("%d", *p.Stock)
		}
		row := fmt.Sprintf("%-8s %-28s %-12s %-10s %-8s %12s %7s",
			truncate(p.Code, 8),
			truncate(p.Name, 28),
			truncate(optionName(p.Type), 12),
			truncate(optionName(p.Color), 10),
			truncate(optionName(p.Size), 8),
			money.FormatBRL(p.CurrentPrice()),
			stock,
		)
		switch {
		case i == m.productCursor:
			row = selected.Render("> " + row)
		case p.Stock != nil && *p.Stock <= 0:
			row = "  " + low.Render(row)
		default:
			row = "  " + row
		}
		rows = append(rows, row)
	}
	table := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))

	pager := fmt.Sprintf("página %d", m.productPageNum)
	if m.productPage.Total != nil {
		pager += fmt.Sprintf(" · %d produtos", *m.productPage.Total)
	}
	if m.productHasMore {
		pager += " · → próxima"
	}
	if m.productPageNum > 1 {
		pager += " · ← anterior"
	}

	lines = append(lines,
		"",
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, table),
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mutedText(pager)),
	)
	return strings.Join(lines, "\n")
}
