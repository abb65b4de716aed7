package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/lachiem1/estoque/internal/auth"
	"github.com/lachiem1/estoque/internal/config"
	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/ledger"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/observability"
	"github.com/lachiem1/estoque/internal/sales"
)

const loginTimeout = 15 * time.Second

var (
	saveSession   = auth.SaveSession
	removeSession = auth.RemoveToken
)

type clearCommandTextMsg struct {
	id int
}

type loginMsg struct {
	userName string
	saveErr  error
	err      error
}

type logoutMsg struct {
	err error
}

type commandSpec struct {
	name        string
	description string
}

type authDialogMode int

const (
	authDialogNone authDialogMode = iota
	authDialogLogin
	authDialogLogout
)

type screenMode int

const (
	screenHome screenMode = iota
	screenDashboard
	screenProducts
	screenPurchases
	screenExpenses
	screenSales
	screenCustomers
	screenSuppliers
	screenCards
	screenConfig
)

type homeItem struct {
	label       string
	screen      screenMode
	description string
}

var homeItems = []homeItem{
	{"dashboard", screenDashboard, "Resumo do dia: vendas, recebimentos, estoque crítico e movimentação."},
	{"produtos", screenProducts, "Catálogo paginado, busca, preços e cadastros auxiliares."},
	{"compras", screenPurchases, "Pedidos de compra e baixa de parcelas."},
	{"gastos", screenExpenses, "Gastos dos últimos 30 dias por status."},
	{"vendas", screenSales, "Registrar venda com prévia de taxas e recebimentos."},
	{"clientes", screenCustomers, "Lista e cadastro de clientes."},
	{"fornecedores", screenSuppliers, "Lista e cadastro de fornecedores."},
	{"cartões", screenCards, "Regras de taxa por cartão e extrato mensal."},
	{"configurações", screenConfig, "API, sessão e métricas do console."},
}

// viewName is the loader key prefix of a screen.
func (s screenMode) viewName() string {
	switch s {
	case screenDashboard:
		return "dashboard"
	case screenProducts:
		return "produtos"
	case screenPurchases:
		return "compras"
	case screenExpenses:
		return "gastos"
	case screenSales:
		return "vendas"
	case screenCustomers:
		return "clientes"
	case screenSuppliers:
		return "fornecedores"
	case screenCards:
		return "cartoes"
	default:
		return ""
	}
}

// Options wires the console to its collaborators. Client is required.
type Options struct {
	Client   *estoqueapi.Client
	Bridge   *Bridge
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	UserName string
}

type model struct {
	client  *estoqueapi.Client
	loader  *loader.Loader
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	width  int
	height int

	selected int
	cmd      textinput.Model
	email    textinput.Model
	password textinput.Model

	userName   string
	loginFocus int
	loginErr   string
	loginHint  string
	loginBusy  bool

	commandText             string
	commandTextID           int
	commandSuggestions      []commandSpec
	commandSuggestionIndex  int
	commandSuggestionOffset int
	commandActive           bool

	showHelpOverlay bool
	authDialog      authDialogMode
	screen          screenMode
	form            formDialog

	loadSeq  int
	loadView string
	loading  bool
	loadErr  string

	// confirmDelete holds the ID awaiting a second "x".
	confirmDelete string

	dashboard *estoqueapi.DashboardSummary

	sale            *sales.Draft
	saleCustomers   []estoqueapi.Customer
	saleCustomerIdx int
	saleFocus       int
	saleProductIdx  int
	saleQty         string
	salePrice       string
	saleItemCursor  int
	saleErr         string
	saleBusy        bool

	cards        []fees.CardAccount
	cardPayments []estoqueapi.PurchasePayment
	cardRules    map[string][]fees.CardRule
	cardCursor   int
	cardRuleIdx  int
	cardFocus    int
	cardMonth    string
	cardErr      string
	cardPayBusy  bool

	productPage         *estoqueapi.ProductPage
	productPageNum      int
	productHasMore      bool
	productCursor       int
	productQuery        string
	productSearch       textinput.Model
	productSearchActive bool
	productCatalogs     map[estoqueapi.CatalogKind][]estoqueapi.Option

	refs ledgerRefs

	purchases          []estoqueapi.Purchase
	purchasePayments   []estoqueapi.PurchasePayment
	purchaseCursor     int
	purchasePaneOpen   bool
	purchasePaneCursor int

	expenses         []estoqueapi.Expense
	expenseFilter    ledger.ExpenseFilter
	expenseStatusIdx int
	expenseCursor    int
	expenseDetail    *estoqueapi.Expense

	customers     []estoqueapi.Customer
	suppliers     []estoqueapi.Supplier
	contactCursor int

	quitting bool
}

func New(opts Options) tea.Model {
	cmd := textinput.New()
	cmd.Prompt = "> "
	cmd.Placeholder = "/help"
	cmd.Width = 72
	cmd.Focus()

	email := textinput.New()
	email.Prompt = "E-mail: "
	email.Placeholder = "voce@loja.com"
	email.CharLimit = 120

	password := textinput.New()
	password.Prompt = "Senha:  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	search := textinput.New()
	search.Prompt = "buscar: "
	search.Placeholder = "nome ou código"
	search.Width = 40

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}

	m := model{
		client:         opts.Client,
		loader:         loader.New(opts.Bridge.loadEvent),
		cfg:            cfg,
		logger:         logger,
		metrics:        opts.Metrics,
		now:            time.Now,
		cmd:            cmd,
		email:          email,
		password:       password,
		productSearch:  search,
		userName:       opts.UserName,
		screen:         screenHome,
		productPageNum: 1,
		cardRules:      map[string][]fees.CardRule{},
	}
	m.expenseFilter = ledger.DefaultExpenseFilter(m.now())
	m.cardMonth = ledger.FormatMonth(m.now())
	if opts.Client == nil || opts.Client.Token() == "" {
		m = m.openLogin("Entre com seu e-mail e senha.")
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.cmd.Width = max(40, msg.Width-36)
		m.email.Width = max(24, msg.Width-48)
		m.password.Width = max(24, msg.Width-48)
		return m, nil

	case clearCommandTextMsg:
		if msg.id == m.commandTextID {
			m.commandText = ""
		}
		return m, nil

	case apiErrorMsg:
		return m.withCommandFeedback(msg.message)

	case unauthorizedMsg:
		m.userName = ""
		m.loader.Leave()
		m.loading = false
		return m.openLogin("Sessão expirada. Faça login novamente."), nil

	case loginMsg:
		m.loginBusy = false
		if msg.err != nil {
			if estoqueapi.IsUnauthorized(msg.err) {
				m.loginErr = "E-mail ou senha inválidos."
			} else {
				m.loginErr = msg.err.Error()
			}
			return m, nil
		}
		m.userName = msg.userName
		m = m.closeAuthDialog()
		text := "Bem-vindo, " + displayName(msg.userName) + "."
		if msg.saveErr != nil {
			m.logger.Warn("session not saved", zap.Error(msg.saveErr))
			text = "Sessão ativa, mas não salva no chaveiro: " + msg.saveErr.Error()
		}
		var feedback, load tea.Cmd
		m, feedback = m.feedback(text)
		if m.screen == screenHome {
			return m, feedback
		}
		m, load = m.enterScreen(m.screen)
		return m, tea.Batch(feedback, load)

	case logoutMsg:
		m = m.closeAuthDialog()
		m.userName = ""
		m.loader.Leave()
		m.screen = screenHome
		m.loading = false
		if msg.err != nil {
			return m.withCommandFeedback("falha ao remover a sessão: " + msg.err.Error())
		}
		return m.withCommandFeedback("Sessão encerrada.")

	case loadEventMsg:
		return m.handleLoadEvent(msg.event)

	case saleSubmittedMsg:
		return m.handleSaleSubmitted(msg)
	case ruleSavedMsg:
		return m.handleRuleSaved(msg)
	case invoicePaidMsg:
		return m.handleInvoicePaid(msg)
	case productSavedMsg:
		return m.handleProductSaved(msg)
	case paymentUpdatedMsg:
		return m.handlePaymentUpdated(msg)
	case purchaseSavedMsg:
		return m.handlePurchaseSaved(msg)
	case expenseSavedMsg:
		return m.handleExpenseSaved(msg)
	case expenseDetailMsg:
		return m.handleExpenseDetail(msg)
	case contactSavedMsg:
		return m.handleContactSaved(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.loader.Leave()
		return m, tea.Quit
	}

	if m.showHelpOverlay {
		switch msg.String() {
		case "esc":
			m.showHelpOverlay = false
			return m, nil
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.authDialog != authDialogNone {
		return m.handleAuthKey(msg)
	}

	if m.form.active() {
		return m.handleFormKey(msg)
	}

	if m.screen == screenHome {
		return m.handleHomeKey(msg)
	}

	if m.commandActive {
		return m.handleCommandKey(msg)
	}

	if next, cmd, handled := m.handleScreenKey(msg); handled {
		return next, cmd
	}

	switch msg.String() {
	case "esc":
		return m.goHome(), nil
	case "q":
		m.quitting = true
		m.loader.Leave()
		return m, tea.Quit
	case "/":
		m.commandActive = true
		m.cmd.SetValue("/")
		m.cmd.CursorEnd()
		m.cmd.Focus()
		m.refreshCommandSuggestions()
		return m, nil
	case "r":
		return m.enterScreen(m.screen)
	}
	return m, nil
}

func (m model) handleScreenKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	switch m.screen {
	case screenSales:
		return m.salesKey(msg)
	case screenCards:
		return m.cardsKey(msg)
	case screenProducts:
		return m.productsKey(msg)
	case screenPurchases:
		return m.purchasesKey(msg)
	case screenExpenses:
		return m.expensesKey(msg)
	case screenCustomers, screenSuppliers:
		return m.contactsKey(msg)
	}
	return m, nil, false
}

func (m model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.cmd.SetValue("")
		m.clearCommandSuggestions()
		return m, nil
	case "up":
		if m.shouldShowCommandSuggestions() {
			m.commandSuggestionIndex = max(0, m.commandSuggestionIndex-1)
			m.adjustSuggestionWindow(2)
			return m, nil
		}
		m.selected = (m.selected - 1 + len(homeItems)) % len(homeItems)
		return m, nil
	case "down":
		if m.shouldShowCommandSuggestions() {
			m.commandSuggestionIndex = min(len(m.commandSuggestions)-1, m.commandSuggestionIndex+1)
			m.adjustSuggestionWindow(2)
			return m, nil
		}
		m.selected = (m.selected + 1) % len(homeItems)
		return m, nil
	case "tab":
		if m.shouldShowCommandSuggestions() {
			m.cmd.SetValue(m.commandSuggestions[m.commandSuggestionIndex].name)
			m.cmd.CursorEnd()
			m.refreshCommandSuggestions()
			return m, nil
		}
	case "enter":
		if strings.TrimSpace(m.cmd.Value()) == "" && !m.shouldShowCommandSuggestions() {
			return m.enterScreen(homeItems[m.selected].screen)
		}
		input := strings.TrimSpace(m.cmd.Value())
		if m.shouldShowCommandSuggestions() {
			input = m.commandSuggestions[m.commandSuggestionIndex].name
		}
		return m.runSlashCommand(input)
	case "q":
		if strings.TrimSpace(m.cmd.Value()) == "" {
			m.quitting = true
			return m, tea.Quit
		}
	}
	if m.commandText != "" {
		switch msg.Type {
		case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete:
			m.commandText = ""
		}
	}

	var cmd tea.Cmd
	m.cmd, cmd = m.cmd.Update(msg)
	m.refreshCommandSuggestions()
	return m, cmd
}

// handleCommandKey drives the command bar opened with "/" on a screen.
func (m model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.commandActive = false
		m.cmd.SetValue("")
		m.clearCommandSuggestions()
		return m, nil
	case "up":
		if m.shouldShowCommandSuggestions() {
			m.commandSuggestionIndex = max(0, m.commandSuggestionIndex-1)
			m.adjustSuggestionWindow(2)
		}
		return m, nil
	case "down":
		if m.shouldShowCommandSuggestions() {
			m.commandSuggestionIndex = min(len(m.commandSuggestions)-1, m.commandSuggestionIndex+1)
			m.adjustSuggestionWindow(2)
		}
		return m, nil
	case "enter":
		input := strings.TrimSpace(m.cmd.Value())
		if m.shouldShowCommandSuggestions() {
			input = m.commandSuggestions[m.commandSuggestionIndex].name
		}
		m.commandActive = false
		return m.runSlashCommand(input)
	}
	var cmd tea.Cmd
	m.cmd, cmd = m.cmd.Update(msg)
	if strings.TrimSpace(m.cmd.Value()) == "" {
		m.commandActive = false
	}
	m.refreshCommandSuggestions()
	return m, cmd
}

func (m model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeAuthDialog(), nil
	case "enter":
		if m.authDialog == authDialogLogout {
			return m, logoutCmd(m.client)
		}
		if m.loginBusy {
			return m, nil
		}
		if m.loginFocus == 0 {
			return m.focusLogin(1), nil
		}
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if email == "" || password == "" {
			m.loginErr = "Informe e-mail e senha."
			return m, nil
		}
		m.loginBusy = true
		m.loginErr = ""
		return m, loginCmd(m.client, email, password)
	case "tab", "shift+tab", "up", "down":
		if m.authDialog == authDialogLogin {
			return m.focusLogin(1 - m.loginFocus), nil
		}
	}
	if m.authDialog != authDialogLogin || m.loginBusy {
		return m, nil
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	m.loginErr = ""
	return m, cmd
}

func (m model) openLogin(hint string) model {
	m.authDialog = authDialogLogin
	m.loginHint = hint
	m.loginErr = ""
	m.loginBusy = false
	m.password.SetValue("")
	m.cmd.Blur()
	m.clearCommandSuggestions()
	return m.focusLogin(0)
}

func (m model) focusLogin(i int) model {
	m.loginFocus = i
	if i == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
	return m
}

func (m model) closeAuthDialog() model {
	m.authDialog = authDialogNone
	m.loginBusy = false
	m.loginErr = ""
	m.password.SetValue("")
	m.password.Blur()
	m.email.Blur()
	m.cmd.Focus()
	return m
}

func (m model) handleLoadEvent(evt loader.Event) (tea.Model, tea.Cmd) {
	if evt.View != m.loadView {
		return m, nil
	}
	switch evt.Type {
	case loader.EventLoadStarted:
		// enterScreen already set loading; Started may arrive after the
		// final event since the bridge does not order deliveries.
	case loader.EventLoadCanceled:
		m.loading = false
	case loader.EventLoadFailed:
		m.loading = false
		m.loadErr = evt.Err.Error()
		m.logger.Warn("view load failed", zap.String("view", evt.View), zap.Error(evt.Err))
	case loader.EventLoadOK:
		m.loading = false
		m.loadErr = ""
		m.logger.Debug("view loaded", zap.String("view", evt.View))
		return m.applyLoadResult(evt.Result), nil
	}
	return m, nil
}

func (m model) applyLoadResult(result any) model {
	switch r := result.(type) {
	case *estoqueapi.DashboardSummary:
		m.dashboard = r
	case salesData:
		m = m.applySalesData(r)
	case cardsData:
		m = m.applyCardsData(r)
	case productsData:
		m = m.applyProductsData(r)
	case purchasesData:
		m = m.applyPurchasesData(r)
	case expensesData:
		m = m.applyExpensesData(r)
	case []estoqueapi.Customer:
		m.customers = r
		m.contactCursor = clampCursor(m.contactCursor, len(r))
	case []estoqueapi.Supplier:
		m.suppliers = r
		m.contactCursor = clampCursor(m.contactCursor, len(r))
	}
	return m
}

// enterScreen switches to s and starts its load. Entering the current
// screen again reloads it.
func (m model) enterScreen(s screenMode) (model, tea.Cmd) {
	if m.screen != s {
		m = m.resetScreen(s)
	}
	m.screen = s
	m.commandActive = false
	m.cmd.SetValue("")
	m.clearCommandSuggestions()
	m.loadErr = ""
	m.confirmDelete = ""
	for i, item := range homeItems {
		if item.screen == s {
			m.selected = i
		}
	}

	fn := m.loadFuncFor(s)
	if fn == nil {
		m.loader.Leave()
		m.loading = false
		return m, nil
	}
	m.loadSeq++
	m.loadView = fmt.Sprintf("%s:%d", s.viewName(), m.loadSeq)
	m.loading = true
	if err := m.loader.Enter(context.Background(), m.loadView, fn); err != nil {
		m.loading = false
		m.loadErr = err.Error()
	}
	return m, nil
}

func (m model) loadFuncFor(s screenMode) loader.LoadFunc {
	client := m.client
	if client == nil {
		return nil
	}
	switch s {
	case screenDashboard:
		return func(ctx context.Context) (any, error) {
			return client.DashboardSummary(ctx)
		}
	case screenSales:
		return loadSales(client)
	case screenCards:
		return loadCards(client)
	case screenProducts:
		return loadProducts(client, estoqueapi.ProductFilter{Page: m.productPageNum, Search: m.productQuery})
	case screenPurchases:
		return loadPurchases(client)
	case screenExpenses:
		return loadExpenses(client, m.expenseFilter.Query())
	case screenCustomers:
		return func(ctx context.Context) (any, error) {
			return client.ListCustomers(ctx)
		}
	case screenSuppliers:
		return func(ctx context.Context) (any, error) {
			return client.ListSuppliers(ctx)
		}
	}
	return nil
}

func (m model) resetScreen(s screenMode) model {
	m.form = formDialog{}
	switch s {
	case screenSales:
		m.sale = nil
		m.saleFocus = 0
		m.saleErr = ""
		m.saleBusy = false
		m.saleQty = ""
		m.salePrice = ""
		m.saleItemCursor = 0
		m.saleCustomerIdx = 0
		m.saleProductIdx = 0
	case screenCards:
		m.cardCursor = 0
		m.cardRuleIdx = 0
		m.cardFocus = cardsFocusList
		m.cardErr = ""
		m.cardMonth = ledger.FormatMonth(m.now())
	case screenProducts:
		m.productCursor = 0
		m.productPageNum = 1
		m.productQuery = ""
		m.productSearchActive = false
		m.productSearch.SetValue("")
		m.productSearch.Blur()
	case screenPurchases:
		m.purchaseCursor = 0
		m.purchasePaneOpen = false
		m.purchasePaneCursor = 0
	case screenExpenses:
		m.expenseCursor = 0
		m.expenseDetail = nil
		m.expenseStatusIdx = 0
		m.expenseFilter = ledger.DefaultExpenseFilter(m.now())
	case screenCustomers, screenSuppliers:
		m.contactCursor = 0
	}
	return m
}

func (m model) goHome() model {
	m.loader.Leave()
	m.screen = screenHome
	m.loading = false
	m.loadErr = ""
	m.form = formDialog{}
	m.commandActive = false
	m.cmd.Focus()
	return m
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(1, 1)
	contentStyle := lipgloss.NewStyle().Padding(1, 1, 0, 1)
	if m.width > 0 {
		frame = frame.Width(max(1, m.width-frame.GetHorizontalBorderSize()))
	}
	if m.height > 0 {
		frame = frame.Height(max(1, m.height-frame.GetVerticalBorderSize()))
	}
	layoutWidth := max(1, m.width-frame.GetHorizontalFrameSize()-contentStyle.GetHorizontalFrameSize())
	layoutHeight := max(1, m.height-frame.GetVerticalFrameSize()-contentStyle.GetVerticalFrameSize())

	if overlay := m.renderOverlay(layoutWidth); overlay != "" {
		centered := lipgloss.Place(layoutWidth, layoutHeight, lipgloss.Center, lipgloss.Center, overlay)
		return frame.Render(contentStyle.Render(centered))
	}

	var body string
	switch m.screen {
	case screenHome:
		return frame.Render(contentStyle.Render(m.renderHomeScreen(layoutWidth, layoutHeight)))
	case screenDashboard:
		body = m.renderDashboardScreen(layoutWidth)
	case screenSales:
		body = m.renderSalesScreen(layoutWidth)
	case screenCards:
		body = m.renderCardsScreen(layoutWidth)
	case screenProducts:
		body = m.renderProductsScreen(layoutWidth)
	case screenPurchases:
		body = m.renderPurchasesScreen(layoutWidth)
	case screenExpenses:
		body = m.renderExpensesScreen(layoutWidth)
	case screenCustomers, screenSuppliers:
		body = m.renderContactsScreen(layoutWidth)
	case screenConfig:
		body = m.renderConfigScreen(layoutWidth)
	}
	return frame.Render(contentStyle.Render(m.withScreenChrome(body, layoutWidth)))
}

func (m model) renderOverlay(layoutWidth int) string {
	switch {
	case m.showHelpOverlay:
		return renderHelpOverlay(layoutWidth)
	case m.authDialog != authDialogNone:
		return m.renderAuthDialog(layoutWidth)
	case m.form.active():
		return m.form.render(layoutWidth)
	}
	return ""
}

// withScreenChrome appends the toast, the command bar and the key hints
// under a screen body.
func (m model) withScreenChrome(body string, layoutWidth int) string {
	lines := []string{body, ""}
	if strings.TrimSpace(m.commandText) != "" {
		lines = append(lines, m.renderMessageArea(min(layoutWidth, 80)))
	}
	if m.commandActive {
		lines = append(lines, m.renderCommandBox(min(layoutWidth, 80)))
	}
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render(screenHint(m.screen))
	lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, hint))
	return strings.Join(lines, "\n")
}

func screenHint(s screenMode) string {
	base := "r recarregar · / comandos · esc voltar · q sair"
	switch s {
	case screenSales:
		return "tab campo · ←/→ opção · enter adicionar item · x remover · ctrl+s registrar · " + base
	case screenCards:
		return "tab lista/regras · enter editar regra · [ ] mês · p pagar fatura · " + base
	case screenProducts:
		return "←/→ página · s buscar · a novo · $ preço · c cadastro auxiliar · x excluir · " + base
	case screenPurchases:
		return "enter parcelas · p pagar parcela · a nova compra · " + base
	case screenExpenses:
		return "enter detalhes · f status · a novo gasto · " + base
	case screenCustomers:
		return "a novo cliente · " + base
	case screenSuppliers:
		return "a novo · e editar · x excluir · " + base
	}
	return base
}

func (m model) renderHomeScreen(layoutWidth, layoutHeight int) string {
	header := renderBlockTitle()
	if m.width > 0 {
		header = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, header)
	}
	header = lipgloss.NewStyle().PaddingBottom(1).Render(header)

	statusLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render("sessão: ")
	statusValue := lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Bold(true).Render("não conectado")
	if m.client != nil && m.client.Token() != "" {
		statusValue = lipgloss.NewStyle().Foreground(lipgloss.Color("#5CCB76")).Bold(true).Render(displayName(m.userName))
	}
	statusLine := statusLabel + statusValue

	listWidth := 26
	panelHeight := 14
	listBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F47A60")).
		Padding(0, 1).
		Height(panelHeight).
		Width(listWidth).
		Render(renderViews(homeItems, m.selected, statusLine))

	detailWidth := max(30, min(layoutWidth-listWidth-8, 56))
	item := homeItems[m.selected]
	detail := strings.Join([]string{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true).Render(item.label),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9")).Render(item.description),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render("Enter para abrir · /help para comandos"),
	}, "\n")
	detailBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FFD54A")).
		Padding(0, 1).
		Width(detailWidth).
		Height(panelHeight).
		Render(detail)

	mainPanelsRaw := lipgloss.JoinHorizontal(lipgloss.Top, listBox, "  ", detailBox)
	mainPanelsWidth := lipgloss.Width(mainPanelsRaw)
	mainPanels := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, mainPanelsRaw)

	hasMessage := strings.TrimSpace(m.commandText) != ""
	messageArea := ""
	if hasMessage {
		messageArea = lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderMessageArea(mainPanelsWidth))
	}
	bottomSection := lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center, m.renderCommandBox(mainPanelsWidth))

	headerGap := 1
	bridgeGap := 1
	if m.height > 0 {
		coreHeight := lipgloss.Height(header) + lipgloss.Height(mainPanelsRaw) + lipgloss.Height(bottomSection) + headerGap
		if hasMessage {
			coreHeight += 1 + lipgloss.Height(messageArea)
		}
		// The gap above the command bar absorbs spare height first.
		bridgeGap = max(1, layoutHeight-coreHeight)
		if coreHeight+bridgeGap > layoutHeight {
			headerGap = 0
			coreHeight--
		}
		if coreHeight+bridgeGap > layoutHeight {
			bridgeGap = max(0, layoutHeight-coreHeight)
		}
	}

	topLines := []string{header}
	if headerGap > 0 {
		topLines = append(topLines, "")
	}
	topLines = append(topLines, mainPanels)
	if hasMessage {
		topLines = append(topLines, "", messageArea)
	}
	bodyText := strings.Join(topLines, "\n")
	if bridgeGap > 0 {
		bodyText += "\n" + strings.Repeat("\n", bridgeGap-1)
	}
	return bodyText + "\n" + bottomSection
}

func (m model) renderMessageArea(width int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Foreground(lipgloss.Color("#D4CDE9")).
		Width(max(8, width-4)).
		Render(m.commandText)
}

func (m model) renderCommandBox(width int) string {
	innerWidth := max(8, width-4)
	input := m.cmd
	input.Width = max(6, innerWidth-2)
	lines := []string{}
	if m.shouldShowCommandSuggestions() {
		lines = append(lines, renderCommandSuggestionRows(innerWidth, m.commandSuggestions, m.commandSuggestionIndex, m.commandSuggestionOffset))
	}
	lines = append(lines, lipgloss.NewStyle().Width(innerWidth).Render(input.View()))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (m model) runSlashCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "":
		return m, nil
	case "/help":
		m.showHelpOverlay = true
		m.commandText = ""
		m.cmd.SetValue("")
		m.clearCommandSuggestions()
		return m, nil
	case "/login":
		hint := "Entre com seu e-mail e senha."
		if m.client != nil && m.client.Token() != "" {
			hint = "Já existe uma sessão. Entrar de novo substitui a atual."
		}
		m.cmd.SetValue("")
		return m.openLogin(hint), nil
	case "/logout":
		m.authDialog = authDialogLogout
		m.cmd.SetValue("")
		m.cmd.Blur()
		m.clearCommandSuggestions()
		return m, nil
	case "/reload":
		if m.screen == screenHome {
			return m.withCommandFeedback("Nada para recarregar aqui.")
		}
		return m.enterScreen(m.screen)
	case "/quit":
		m.quitting = true
		m.loader.Leave()
		return m, tea.Quit
	}
	for _, item := range homeItems {
		if input == "/"+commandName(item.screen) {
			return m.enterScreen(item.screen)
		}
	}
	return m.withCommandFeedback(fmt.Sprintf("Comando desconhecido: %s", input))
}

func commandName(s screenMode) string {
	switch s {
	case screenCards:
		return "cartoes"
	case screenConfig:
		return "config"
	}
	return s.viewName()
}

func (m model) withCommandFeedback(text string) (tea.Model, tea.Cmd) {
	m.commandText = text
	m.commandTextID++
	m.cmd.SetValue("")
	m.clearCommandSuggestions()
	id := m.commandTextID
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearCommandTextMsg{id: id}
	})
}

// feedback is withCommandFeedback for handlers that keep the concrete type.
func (m model) feedback(text string) (model, tea.Cmd) {
	next, cmd := m.withCommandFeedback(text)
	return next.(model), cmd
}

func loginCmd(client *estoqueapi.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()

		resp, err := client.Login(ctx, email, password)
		if err != nil {
			return loginMsg{err: err}
		}
		client.SetToken(resp.AccessToken)
		return loginMsg{
			userName: resp.User.Name,
			saveErr:  saveSession(resp.AccessToken, resp.User.Name),
		}
	}
}

func logoutCmd(client *estoqueapi.Client) tea.Cmd {
	return func() tea.Msg {
		if client != nil && client.Token() != "" {
			ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
			// The local session goes regardless of what the API answers.
			_ = client.Logout(ctx)
			cancel()
			client.SetToken("")
		}
		return logoutMsg{err: removeSession()}
	}
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "usuário"
	}
	return name
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(cursor, n-1))
}

func renderViews(items []homeItem, selected int, statusLine string) string {
	lines := []string{statusLine, ""}
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Underline(true)
	prefixStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	for i, item := range items {
		if i == selected {
			lines = append(lines, prefixStyle.Render("> ")+selectedStyle.Render(item.label))
			continue
		}
		lines = append(lines, itemStyle.Render("  "+item.label))
	}
	return strings.Join(lines, "\n")
}

func renderBlockTitle() string {
	raw := []string{
		"█▀▀ █▀ ▀█▀ █▀█ █▀█ █ █ █▀▀",
		"██▄ ▄█  █  █▄█ ▀▀█ █▄█ ██▄",
		"▀▀▀ ▀▀  ▀  ▀▀▀   ▀ ▀▀▀ ▀▀▀",
	}
	// Letter regions of "ESTOQUE", alternating coral/yellow.
	segments := [][2]int{
		{0, 2},   // E
		{4, 5},   // S
		{7, 9},   // T
		{11, 13}, // O
		{15, 17}, // Q
		{19, 21}, // U
		{23, 25}, // E
	}
	return renderStyledBlockTitle(raw, segments)
}

func renderStyledBlockTitle(raw []string, segments [][2]int) string {
	coral := lipgloss.NewStyle().Foreground(lipgloss.Color("#F47A60")).Bold(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)

	rows := make([]string, 0, len(raw))
	for _, line := range raw {
		var out strings.Builder
		for idx, ch := range []rune(line) {
			if ch == ' ' {
				out.WriteRune(' ')
				continue
			}
			fill := coral
			if segmentForIndex(idx, segments)%2 == 1 {
				fill = yellow
			}
			out.WriteString(fill.Render(string(ch)))
		}
		rows = append(rows, out.String())
	}
	return strings.Join(rows, "\n")
}

func segmentForIndex(index int, segments [][2]int) int {
	for i, s := range segments {
		if index >= s[0] && index <= s[1] {
			return i
		}
	}
	return 0
}

// renderScreenTitle is the heading every screen starts with, followed by
// the load state.
func (m model) renderScreenTitle(title string, layoutWidth int) string {
	spaced := strings.Join(strings.Split(strings.ToUpper(title), ""), " ")
	lines := []string{
		lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
			lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true).Render(spaced)),
	}
	switch {
	case strings.TrimSpace(m.loadErr) != "":
		lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
			lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render("erro: "+m.loadErr)))
	case m.loading:
		lines = append(lines, lipgloss.PlaceHorizontal(layoutWidth, lipgloss.Center,
			lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Render("carregando...")))
	default:
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func mutedText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0")).Render(s)
}

func errorText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#F15B5B")).Render(s)
}

func commandCatalog() []commandSpec {
	specs := []commandSpec{
		{name: "/help", description: "mostrar a ajuda de comandos"},
		{name: "/login", description: "entrar com e-mail e senha"},
		{name: "/logout", description: "encerrar a sessão e limpar o chaveiro"},
	}
	for _, item := range homeItems {
		specs = append(specs, commandSpec{name: "/" + commandName(item.screen), description: "abrir " + item.label})
	}
	return append(specs,
		commandSpec{name: "/reload", description: "recarregar a tela atual"},
		commandSpec{name: "/quit", description: "sair do console"},
	)
}

func (m *model) refreshCommandSuggestions() {
	input := strings.TrimSpace(m.cmd.Value())
	if !strings.HasPrefix(input, "/") {
		m.clearCommandSuggestions()
		return
	}

	prefix := strings.ToLower(input)
	all := commandCatalog()
	matches := make([]commandSpec, 0, len(all))
	for _, cmd := range all {
		if strings.HasPrefix(cmd.name, prefix) {
			matches = append(matches, cmd)
		}
	}
	if len(matches) == 0 {
		m.clearCommandSuggestions()
		return
	}

	m.commandSuggestions = matches
	if m.commandSuggestionIndex >= len(m.commandSuggestions) {
		m.commandSuggestionIndex = len(m.commandSuggestions) - 1
	}
	if m.commandSuggestionIndex < 0 {
		m.commandSuggestionIndex = 0
	}
	m.adjustSuggestionWindow(2)
}

func (m *model) clearCommandSuggestions() {
	m.commandSuggestions = nil
	m.commandSuggestionIndex = 0
	m.commandSuggestionOffset = 0
}

func (m model) shouldShowCommandSuggestions() bool {
	return strings.HasPrefix(strings.TrimSpace(m.cmd.Value()), "/") && len(m.commandSuggestions) > 0
}

func (m *model) adjustSuggestionWindow(visibleRows int) {
	if visibleRows < 1 {
		visibleRows = 1
	}
	if m.commandSuggestionIndex < m.commandSuggestionOffset {
		m.commandSuggestionOffset = m.commandSuggestionIndex
	}
	if m.commandSuggestionIndex >= m.commandSuggestionOffset+visibleRows {
		m.commandSuggestionOffset = m.commandSuggestionIndex - visibleRows + 1
	}
	maxOffset := max(0, len(m.commandSuggestions)-visibleRows)
	if m.commandSuggestionOffset > maxOffset {
		m.commandSuggestionOffset = maxOffset
	}
}

func renderCommandSuggestionRows(innerWidth int, matches []commandSpec, selectedIndex int, offset int) string {
	visibleRows := 2
	start := max(0, min(offset, max(0, len(matches)-1)))
	end := min(len(matches), start+visibleRows)

	rows := make([]string, 0, end-start)
	baseRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#1B2330")).
		Width(innerWidth)
	selectedRow := lipgloss.NewStyle().
		Background(lipgloss.Color("#263249")).
		Width(innerWidth)
	for i := start; i < end; i++ {
		cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#B9B4D0"))
		descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#8D88A8"))
		prefix := "  "
		rowStyle := baseRow
		if i == selectedIndex {
			prefix = "› "
			cmdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
			descStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4CDE9"))
			rowStyle = selectedRow
		}
		row := prefix + cmdStyle.Render(matches[i].name) + "  " + descStyle.Render(matches[i].description)
		rows = append(rows, rowStyle.Render(row))
	}

	return strings.Join(rows, "\n")
}

func renderHelpOverlay(maxWidth int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FA8FF")).
		Bold(true).
		Render("Ajuda de comandos")

	catalog := commandCatalog()
	commands := make([]string, 0, len(catalog))
	for _, cmd := range catalog {
		commands = append(commands, fmt.Sprintf("%-15s %s", cmd.name, cmd.description))
	}
	screenHelp := []string{
		"",
		"nas telas:",
		"/ abre a barra de comandos, r recarrega, esc volta ao início",
	}
	body := strings.Join(append(commands, screenHelp...), "\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD54A")).
		Bold(true).
		Render("Esc para fechar")

	content := strings.Join([]string{title, "", body, "", footer}, "\n")
	panelWidth := min(maxWidth-6, 68)
	panelWidth = max(36, panelWidth)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth).
		Render(content)
}

func (m model) renderAuthDialog(maxWidth int) string {
	panelWidth := min(maxWidth-6, 64)
	panelWidth = max(44, panelWidth)

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6CBFE6")).
		Padding(1, 2).
		Width(panelWidth)

	switch m.authDialog {
	case authDialogLogin:
		email := m.email
		email.Width = max(18, panelWidth-16)
		password := m.password
		password.Width = max(18, panelWidth-16)

		lines := []string{
			"Entrar no Estoque",
			"",
			m.loginHint,
			"",
			email.View(),
			password.View(),
		}
		if m.loginErr != "" {
			lines = append(lines, "", errorText(m.loginErr))
		}
		footer := "Enter para entrar, Tab para trocar de campo, Esc para cancelar"
		if m.loginBusy {
			footer = "entrando..."
		}
		lines = append(lines, "", footer)
		return panel.Render(strings.Join(lines, "\n"))
	case authDialogLogout:
		content := strings.Join([]string{
			"Sair do Estoque",
			"",
			"A sessão salva no chaveiro será removida.",
			"",
			"Enter para sair, Esc para cancelar",
		}, "\n")
		return panel.Render(content)
	default:
		return ""
	}
}
