package tui

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/lachiem1/estoque/internal/config"
	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/fees"
	"github.com/lachiem1/estoque/internal/loader"
	"github.com/lachiem1/estoque/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// apiRecorder answers reads with an empty JSON list and writes with an
// empty object, keeping the method and path of each request.
type apiRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *apiRecorder) roundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req.Method+" "+req.URL.Path)
	r.mu.Unlock()
	body := `{}`
	if req.Method == http.MethodGet {
		body = `[]`
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func (r *apiRecorder) called(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func newTestModel(t *testing.T, token string) (model, *apiRecorder) {
	t.Helper()
	rec := &apiRecorder{}
	client := estoqueapi.New("https://example.test", token,
		estoqueapi.WithHTTPClient(&http.Client{Transport: roundTripFunc(rec.roundTrip)}))
	m := New(Options{
		Client:  client,
		Config:  &config.Config{APIURL: "https://example.test"},
		Metrics: observability.NewMetrics(),
	}).(model)
	t.Cleanup(m.loader.Leave)
	return m, rec
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return out, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m model, s string) model {
	t.Helper()
	for _, r := range s {
		m, _ = update(t, m, key(string(r)))
	}
	return m
}

func TestNewOpensLoginWithoutToken(t *testing.T) {
	m, _ := newTestModel(t, "")
	if m.authDialog != authDialogLogin {
		t.Fatalf("authDialog = %v, want login", m.authDialog)
	}

	m, _ = newTestModel(t, "tok")
	if m.authDialog != authDialogNone {
		t.Fatalf("authDialog = %v, want none with a stored token", m.authDialog)
	}
}

func TestLoginNeedsEmailAndPassword(t *testing.T) {
	m, _ := newTestModel(t, "")
	m = typeText(t, m, "ana@loja.com")
	m, _ = update(t, m, key("enter"))
	if m.loginFocus != 1 {
		t.Fatalf("loginFocus = %d, want 1 after enter on e-mail", m.loginFocus)
	}

	m, cmd := update(t, m, key("enter"))
	if cmd != nil {
		t.Fatalf("expected no login command without a password")
	}
	if m.loginErr != "Informe e-mail e senha." {
		t.Fatalf("loginErr = %q", m.loginErr)
	}
}

func TestLoginResultClosesDialog(t *testing.T) {
	m, _ := newTestModel(t, "")
	m, _ = update(t, m, loginMsg{err: &estoqueapi.APIError{Status: http.StatusUnauthorized, Message: "bad"}})
	if m.loginErr != "E-mail ou senha inválidos." {
		t.Fatalf("loginErr = %q", m.loginErr)
	}

	m, _ = update(t, m, loginMsg{userName: "Ana"})
	if m.authDialog != authDialogNone {
		t.Fatalf("dialog still open after successful login")
	}
	if m.userName != "Ana" || !strings.Contains(m.commandText, "Ana") {
		t.Fatalf("userName = %q, commandText = %q", m.userName, m.commandText)
	}
}

func TestUnauthorizedReopensLogin(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenCustomers)
	m, _ = update(t, m, unauthorizedMsg{})
	if m.authDialog != authDialogLogin {
		t.Fatalf("authDialog = %v, want login", m.authDialog)
	}
	if m.loading {
		t.Fatalf("loading should stop when the session expires")
	}
}

func TestSlashCommandEntersScreen(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	next, _ := m.runSlashCommand("/fornecedores")
	m = next.(model)
	if m.screen != screenSuppliers {
		t.Fatalf("screen = %v, want suppliers", m.screen)
	}
	if m.loadView != "fornecedores:1" || !m.loading {
		t.Fatalf("loadView = %q loading = %v", m.loadView, m.loading)
	}

	next, _ = m.runSlashCommand("/cartoes")
	if got := next.(model).screen; got != screenCards {
		t.Fatalf("screen = %v, want cards", got)
	}

	next, _ = m.runSlashCommand("/nada")
	if got := next.(model).commandText; got != "Comando desconhecido: /nada" {
		t.Fatalf("commandText = %q", got)
	}
}

func TestStaleLoadEventsAreDropped(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenCustomers)
	stale := m.loadView
	m, _ = m.enterScreen(screenCustomers)
	if m.loadView == stale {
		t.Fatalf("reload kept view key %q", stale)
	}

	m, _ = update(t, m, loadEventMsg{event: loader.Event{
		Type:   loader.EventLoadOK,
		View:   stale,
		Result: []estoqueapi.Customer{{ID: "old", Name: "Antigo"}},
	}})
	if len(m.customers) != 0 || !m.loading {
		t.Fatalf("stale event applied: customers = %v loading = %v", m.customers, m.loading)
	}

	m, _ = update(t, m, loadEventMsg{event: loader.Event{
		Type:   loader.EventLoadOK,
		View:   m.loadView,
		Result: []estoqueapi.Customer{{ID: "c1", Name: "Bia"}},
	}})
	if len(m.customers) != 1 || m.customers[0].Name != "Bia" || m.loading {
		t.Fatalf("customers = %v loading = %v", m.customers, m.loading)
	}
}

func TestLateStartedEventKeepsViewLoaded(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenCustomers)
	view := m.loadView

	m, _ = update(t, m, loadEventMsg{event: loader.Event{
		Type:   loader.EventLoadOK,
		View:   view,
		Result: []estoqueapi.Customer{{ID: "c1", Name: "Bia"}},
	}})
	m, _ = update(t, m, loadEventMsg{event: loader.Event{Type: loader.EventLoadStarted, View: view}})
	if m.loading {
		t.Fatalf("loading = true after OK then Started for %q", view)
	}

	m, _ = m.enterScreen(screenCustomers)
	m, _ = update(t, m, loadEventMsg{event: loader.Event{Type: loader.EventLoadFailed, View: m.loadView, Err: errors.New("circuito aberto")}})
	m, _ = update(t, m, loadEventMsg{event: loader.Event{Type: loader.EventLoadStarted, View: m.loadView}})
	if m.loading || m.loadErr != "circuito aberto" {
		t.Fatalf("loading = %v loadErr = %q after Failed then Started", m.loading, m.loadErr)
	}
}

func TestLoadFailureShowsError(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.enterScreen(screenDashboard)
	m, _ = update(t, m, loadEventMsg{event: loader.Event{
		Type: loader.EventLoadFailed,
		View: m.loadView,
		Err:  errors.New("boom"),
	}})
	if m.loadErr != "boom" || m.loading {
		t.Fatalf("loadErr = %q loading = %v", m.loadErr, m.loading)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Fatalf("view does not show the load error")
	}
}

func TestEscGoesHome(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenSuppliers)
	m, _ = update(t, m, key("esc"))
	if m.screen != screenHome {
		t.Fatalf("screen = %v, want home", m.screen)
	}
}

func saleModel(t *testing.T) model {
	t.Helper()
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenSales)
	stock := 5
	return m.applySalesData(salesData{refs: &loader.SaleReferences{
		PaymentTypes: []estoqueapi.PaymentType{{ID: "pt-cash", Description: "Dinheiro", Active: true}},
		Products: []estoqueapi.Product{{
			ID:    "p1",
			Name:  "Anel",
			Price: &estoqueapi.ProductPrice{Current: decimal.RequireFromString("30")},
			Stock: &stock,
		}},
	}})
}

func TestSaleAddsItemFromTypedQuantityAndPrice(t *testing.T) {
	m := saleModel(t)
	m.saleFocus = saleFocusQuantity
	m = typeText(t, m, "2")
	m.saleFocus = saleFocusPrice
	m = typeText(t, m, "1550")
	m, _ = update(t, m, key("enter"))

	items := m.sale.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (saleErr %q)", len(items), m.saleErr)
	}
	if items[0].Quantity != 2 || !items[0].UnitPrice.Equal(decimal.RequireFromString("15.50")) {
		t.Fatalf("item = %+v", items[0])
	}
	if !m.sale.Total().Equal(decimal.RequireFromString("31")) {
		t.Fatalf("total = %s, want 31", m.sale.Total())
	}
	if m.saleQty != "" || m.salePrice != "" {
		t.Fatalf("inputs not cleared: qty %q price %q", m.saleQty, m.salePrice)
	}
}

func TestSaleSubmitWithoutItemsIsRejected(t *testing.T) {
	m := saleModel(t)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatalf("empty sale should not be submitted")
	}
	if m.saleErr == "" {
		t.Fatalf("expected a validation message")
	}
	if got := m.metrics.Snapshot().Rejections; got != 1 {
		t.Fatalf("rejections = %v, want 1", got)
	}
}

func TestSupplierFormValidatesBeforeSending(t *testing.T) {
	m, rec := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenSuppliers)
	m, _ = update(t, m, key("a"))
	if m.form.kind != formNewSupplier {
		t.Fatalf("form kind = %v, want supplier", m.form.kind)
	}

	m, cmd := update(t, m, key("enter"))
	if cmd != nil || m.form.err == "" {
		t.Fatalf("blank supplier accepted: err %q", m.form.err)
	}

	m = typeText(t, m, "Prata Fina")
	m, cmd = update(t, m, key("enter"))
	if cmd == nil {
		t.Fatalf("expected a save command, form err %q", m.form.err)
	}
	saved, ok := cmd().(contactSavedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("save result = %#v", saved)
	}
	if !rec.called("POST /produtos/fornecedores") {
		t.Fatalf("calls = %v", rec.calls)
	}

	m, _ = update(t, m, saved)
	if m.form.active() {
		t.Fatalf("form still open after save")
	}
	if !strings.Contains(m.commandText, "Prata Fina") {
		t.Fatalf("commandText = %q", m.commandText)
	}
}

func TestSupplierDeleteNeedsConfirmation(t *testing.T) {
	m, rec := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenSuppliers)
	m = m.applyLoadResult([]estoqueapi.Supplier{{ID: "s1", Name: "Prata Fina"}})

	m, _ = update(t, m, key("x"))
	if m.confirmDelete != "s1" {
		t.Fatalf("confirmDelete = %q", m.confirmDelete)
	}
	if !strings.Contains(m.commandText, "novamente") || rec.called("DELETE /produtos/fornecedores/s1") {
		t.Fatalf("first x should only ask for confirmation, commandText %q", m.commandText)
	}

	m, cmd := update(t, m, key("x"))
	if cmd == nil {
		t.Fatalf("second x should delete")
	}
	if msg := cmd().(contactSavedMsg); msg.err != nil {
		t.Fatalf("delete err = %v", msg.err)
	}
	if !rec.called("DELETE /produtos/fornecedores/s1") {
		t.Fatalf("calls = %v", rec.calls)
	}
}

func TestExpenseFormOffersCardsForPaymentType(t *testing.T) {
	m, _ := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenExpenses)
	m.refs = ledgerRefs{
		paymentTypes: []fees.PaymentType{
			{ID: "cash", Description: "Dinheiro"},
			{ID: "pix", Description: "PIX"},
		},
		cards: []fees.CardAccount{
			{ID: "nubank", Name: "Nubank", PixKey: "chave"},
			{ID: "caixa", Name: "Caixa"},
		},
	}
	m, _ = update(t, m, key("a"))
	if got := len(m.form.field("card").options); got != 1 {
		t.Fatalf("cash card options = %d, want only the empty entry", got)
	}

	m.form.focus = 2
	m, _ = update(t, m, key("right"))
	if m.form.choiceID("type") != "pix" {
		t.Fatalf("type = %q, want pix", m.form.choiceID("type"))
	}
	opts := m.form.field("card").options
	if len(opts) != 2 || opts[1].id != "nubank" {
		t.Fatalf("pix card options = %v", opts)
	}

	m, cmd := update(t, m, key("enter"))
	if cmd != nil || m.form.err == "" {
		t.Fatalf("pix expense without card accepted")
	}
}

func TestPurchasePaneMarksInstallmentPaid(t *testing.T) {
	m, rec := newTestModel(t, "tok")
	m, _ = m.enterScreen(screenPurchases)
	m = m.applyPurchasesData(purchasesData{
		purchases: []estoqueapi.Purchase{{ID: "c1", Status: "pendente"}},
		payments: []estoqueapi.PurchasePayment{
			{ID: "pg1", Purchase: &estoqueapi.Ref{ID: "c1"}, Number: 1, Status: estoqueapi.PaymentStatusPaid},
			{ID: "pg2", Purchase: &estoqueapi.Ref{ID: "c1"}, Number: 2, Status: "pendente"},
			{ID: "other", Purchase: &estoqueapi.Ref{ID: "c9"}, Number: 1},
		},
	})

	m, _ = update(t, m, key("enter"))
	if !m.purchasePaneOpen || len(m.selectedInstallments()) != 2 {
		t.Fatalf("pane open = %v installments = %d", m.purchasePaneOpen, len(m.selectedInstallments()))
	}

	m, _ = update(t, m, key("p"))
	if !strings.Contains(m.commandText, "já está paga") {
		t.Fatalf("paid installment should not be sent again, commandText %q", m.commandText)
	}

	m, _ = update(t, m, key("down"))
	_, cmd := update(t, m, key("p"))
	msg, ok := cmd().(paymentUpdatedMsg)
	if !ok || msg.err != nil || msg.number != 2 {
		t.Fatalf("update result = %#v", msg)
	}
	if !rec.called("PATCH /compras/pagamentos/pg2") {
		t.Fatalf("calls = %v", rec.calls)
	}
}
