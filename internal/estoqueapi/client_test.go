package estoqueapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lachiem1/estoque/internal/observability"
	"github.com/lachiem1/estoque/internal/resilience"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(token string, fn roundTripFunc, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithHTTPClient(&http.Client{Transport: fn})}, opts...)
	return New("https://example.test", token, opts...)
}

type recordingNotifier struct {
	messages     []string
	unauthorized int
}

func (n *recordingNotifier) APIError(message string) { n.messages = append(n.messages, message) }
func (n *recordingNotifier) Unauthorized()           { n.unauthorized++ }

func TestRequestHeaders(t *testing.T) {
	var seenReq *http.Request
	client := testClient("test-token", func(req *http.Request) (*http.Response, error) {
		seenReq = req
		return respond(http.StatusOK, `{"name":"Ana"}`), nil
	})

	me, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() unexpected error: %v", err)
	}
	if me.Name != "Ana" {
		t.Fatalf("Me().Name = %q, want %q", me.Name, "Ana")
	}
	if seenReq.URL.Path != "/auth/me" {
		t.Fatalf("path = %q, want %q", seenReq.URL.Path, "/auth/me")
	}
	if got := seenReq.Header.Get("Authorization"); got != "Bearer test-token" {
		t.Fatalf("Authorization header = %q, want %q", got, "Bearer test-token")
	}
	if got := seenReq.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type header = %q, want application/json", got)
	}
	if seenReq.Header.Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID header missing")
	}
}

func TestNoTokenNoAuthorizationHeader(t *testing.T) {
	var seenReq *http.Request
	client := testClient("", func(req *http.Request) (*http.Response, error) {
		seenReq = req
		return respond(http.StatusOK, `[]`), nil
	})

	if _, err := client.ListCustomers(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seenReq.Header.Get("Authorization"); got != "" {
		t.Fatalf("Authorization header = %q, want empty", got)
	}
}

func TestSetTokenAppliesToNextRequest(t *testing.T) {
	var seen string
	client := testClient("", func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Get("Authorization")
		return respond(http.StatusOK, `[]`), nil
	})
	client.SetToken("fresh")

	if _, err := client.ListSales(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "Bearer fresh" {
		t.Fatalf("Authorization header = %q, want %q", seen, "Bearer fresh")
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string", http.StatusBadRequest, `{"message":"Produto inválido"}`, "Produto inválido"},
		{"array", http.StatusBadRequest, `{"message":["nome deve ser informado","preco deve ser positivo"]}`, "nome deve ser informado preco deve ser positivo"},
		{"missing", http.StatusInternalServerError, `{"error":"boom"}`, "Erro 500"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Erro 502"},
		{"empty", http.StatusNotFound, ``, "Erro 404"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			client := testClient("tok", func(req *http.Request) (*http.Response, error) {
				return respond(tc.status, tc.body), nil
			}, WithNotifier(notifier))

			_, err := client.ListSuppliers(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tc.status {
				t.Fatalf("Status = %d, want %d", apiErr.Status, tc.status)
			}
			if apiErr.Message != tc.want {
				t.Fatalf("Message = %q, want %q", apiErr.Message, tc.want)
			}
			if len(notifier.messages) != 1 || notifier.messages[0] != tc.want {
				t.Fatalf("notified %v, want [%q]", notifier.messages, tc.want)
			}
			if notifier.unauthorized != 0 {
				t.Fatalf("unauthorized callbacks = %d, want 0", notifier.unauthorized)
			}
		})
	}
}

func TestUnauthorizedCallback(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		notifier := &recordingNotifier{}
		client := testClient("expired", func(req *http.Request) (*http.Response, error) {
			return respond(status, `{"message":"Unauthorized"}`), nil
		}, WithNotifier(notifier))

		_, err := client.DashboardSummary(context.Background())
		if !IsUnauthorized(err) {
			t.Fatalf("status %d: IsUnauthorized(%v) = false", status, err)
		}
		if notifier.unauthorized != 1 {
			t.Fatalf("status %d: unauthorized callbacks = %d, want 1", status, notifier.unauthorized)
		}
	}
}

func TestLoginIsSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	client := testClient("", func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusUnauthorized, `{"message":"Credenciais inválidas"}`), nil
	}, WithNotifier(notifier))

	_, err := client.Login(context.Background(), "a@b.c", "wrong")
	if err == nil || err.Error() != "Credenciais inválidas" {
		t.Fatalf("Login() error = %v, want API message", err)
	}
	if len(notifier.messages) != 0 || notifier.unauthorized != 0 {
		t.Fatalf("notifier called for login failure: %+v", notifier)
	}
}

func TestLoginSendsCredentials(t *testing.T) {
	var body map[string]string
	client := testClient("", func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/auth/login" {
			t.Fatalf("request = %s %s, want POST /auth/login", req.Method, req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return respond(http.StatusOK, `{"accessToken":"jwt","user":{"name":"Ana"}}`), nil
	})

	resp, err := client.Login(context.Background(), "ana@loja.com", "secret")
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if resp.AccessToken != "jwt" || resp.User.Name != "Ana" {
		t.Fatalf("Login() = %+v", resp)
	}
	if body["email"] != "ana@loja.com" || body["password"] != "secret" {
		t.Fatalf("body = %v", body)
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	client := testClient("", func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{}`), nil
	})
	if _, err := client.Login(context.Background(), "a", "b"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Login() error = %v, want ErrNoToken", err)
	}
}

func TestEmptyOrInvalidSuccessBodyDecodesToZero(t *testing.T) {
	for _, body := range []string{``, `not json`, `  `} {
		client := testClient("tok", func(req *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, body), nil
		})
		summary, err := client.DashboardSummary(context.Background())
		if err != nil {
			t.Fatalf("body %q: unexpected error: %v", body, err)
		}
		if summary.CriticalStock != 0 || !summary.SalesToday.IsZero() || len(summary.StockAlerts) != 0 {
			t.Fatalf("body %q: summary = %+v, want zero value", body, summary)
		}
		if summary.StockAlerts == nil || summary.Movements == nil {
			t.Fatalf("body %q: lists should be empty, not nil", body)
		}
	}
}

func TestListProductsEnvelopeAndArray(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantItems    int
		wantEnvelope bool
		wantTotal    *int
		wantPage     int
	}{
		{
			name:         "envelope",
			body:         `{"items":[{"id":"p1","nome":"Anel"}],"total":41,"page":2,"perPage":20}`,
			wantItems:    1,
			wantEnvelope: true,
			wantTotal:    intPtr(41),
			wantPage:     2,
		},
		{
			name:      "array",
			body:      `[{"id":"p1"},{"id":"p2"}]`,
			wantItems: 2,
			wantPage:  3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seenReq *http.Request
			client := testClient("tok", func(req *http.Request) (*http.Response, error) {
				seenReq = req
				return respond(http.StatusOK, tc.body), nil
			})

			page, err := client.ListProducts(context.Background(), ProductFilter{Page: 3, Search: "  anel ", Color: "AZU"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			q := seenReq.URL.Query()
			if q.Get("limit") != "20" || q.Get("page") != "3" || q.Get("search") != "anel" || q.Get("cor") != "AZU" {
				t.Fatalf("query = %v", q)
			}
			if q.Has("tipo") {
				t.Fatalf("empty tipo should be omitted, query = %v", q)
			}
			if len(page.Items) != tc.wantItems {
				t.Fatalf("len(items) = %d, want %d", len(page.Items), tc.wantItems)
			}
			if page.Envelope != tc.wantEnvelope {
				t.Fatalf("Envelope = %v, want %v", page.Envelope, tc.wantEnvelope)
			}
			if page.Page != tc.wantPage {
				t.Fatalf("Page = %d, want %d", page.Page, tc.wantPage)
			}
			if (page.Total == nil) != (tc.wantTotal == nil) || (page.Total != nil && *page.Total != *tc.wantTotal) {
				t.Fatalf("Total = %v, want %v", page.Total, tc.wantTotal)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestAmountsEncodeAsNumbers(t *testing.T) {
	var raw map[string]any
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return respond(http.StatusCreated, ``), nil
	})

	err := client.SetProductPrice(context.Background(), "p1", PriceUpdate{Price: decimal.RequireFromString("49.90")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw["precoVendaAtual"].(float64); !ok {
		t.Fatalf("precoVendaAtual = %#v, want JSON number", raw["precoVendaAtual"])
	}
}

func TestEndpointRoutes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		call   func(*Client) error
		method string
		path   string
	}{
		{"card rules", func(c *Client) error { _, err := c.CardRules(ctx, "c1"); return err }, http.MethodGet, "/financeiro/cartoes-contas/c1/regras"},
		{"save rule", func(c *Client) error { return c.SaveCardRule(ctx, CardRule{Tag: "debito"}) }, http.MethodPost, "/financeiro/cartoes-contas/regras"},
		{"update card", func(c *Client) error { return c.UpdateCardAccount(ctx, "c1", CardAccountInput{Name: "x"}) }, http.MethodPatch, "/financeiro/cartoes-contas/c1"},
		{"pay invoice", func(c *Client) error { return c.PayInvoice(ctx, InvoicePayment{}) }, http.MethodPost, "/financeiro/cartoes-contas/pagamentos"},
		{"purchase payment", func(c *Client) error { return c.UpdatePurchasePayment(ctx, "pg1", PaymentUpdate{}) }, http.MethodPatch, "/compras/pagamentos/pg1"},
		{"delete supplier", func(c *Client) error { return c.DeleteSupplier(ctx, "s1") }, http.MethodDelete, "/produtos/fornecedores/s1"},
		{"delete catalog", func(c *Client) error { return c.DeleteCatalog(ctx, CatalogSizes, "t1") }, http.MethodDelete, "/produtos/tamanhos/t1"},
		{"price history", func(c *Client) error { _, err := c.PriceHistory(ctx, "p1"); return err }, http.MethodGet, "/produtos/p1/preco/historico"},
		{"expense detail", func(c *Client) error { _, err := c.GetExpense(ctx, "g1"); return err }, http.MethodGet, "/gastos/g1"},
		{"create sale", func(c *Client) error { _, err := c.CreateSale(ctx, SaleInput{}); return err }, http.MethodPost, "/vendas"},
		{"logout", func(c *Client) error { return c.Logout(ctx) }, http.MethodPost, "/auth/logout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seenReq *http.Request
			client := testClient("tok", func(req *http.Request) (*http.Response, error) {
				seenReq = req
				return respond(http.StatusOK, `{}`), nil
			})
			if err := tc.call(client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seenReq.Method != tc.method || seenReq.URL.Path != tc.path {
				t.Fatalf("request = %s %s, want %s %s", seenReq.Method, seenReq.URL.Path, tc.method, tc.path)
			}
		})
	}
}

func TestCardRulesFillsCardID(t *testing.T) {
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `[{"tipo":"credito_2_6","taxaPercentual":3.5,"adicionalParcela":"1"}]`), nil
	})
	rules, err := client.CardRules(context.Background(), "c9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].CardID != "c9" {
		t.Fatalf("rules = %+v", rules)
	}
	if !rules[0].PercentFee.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("PercentFee = %s, want 3.5", rules[0].PercentFee)
	}
}

func TestRefAcceptsStringOrObject(t *testing.T) {
	var payments []PurchasePayment
	body := `[{"id":"1","cartaoConta":"c1"},{"id":"2","cartaoConta":{"id":"c2","nome":"Nubank"}}]`
	if err := json.Unmarshal([]byte(body), &payments); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payments[0].CardAccount.ID != "c1" || payments[1].CardAccount.ID != "c2" || payments[1].CardAccount.Name != "Nubank" {
		t.Fatalf("payments = %+v", payments)
	}
}

func TestTransportErrorNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	metrics := observability.NewMetrics()
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, WithNotifier(notifier), WithMetrics(metrics))

	if _, err := client.ListPurchases(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("notified %v, want one message", notifier.messages)
	}
	if s := metrics.Snapshot(); s.APIErrors != 1 || s.Requests != 1 {
		t.Fatalf("metrics snapshot = %+v", s)
	}
}

func TestCanceledRequestIsQuiet(t *testing.T) {
	notifier := &recordingNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		cancel()
		return nil, req.Context().Err()
	}, WithNotifier(notifier))

	_, err := client.DashboardSummary(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("notified %v for a canceled request", notifier.messages)
	}
}

func TestBreakerShortCircuits(t *testing.T) {
	calls := 0
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		calls++
		return respond(http.StatusServiceUnavailable, `{"message":"down"}`), nil
	}, WithBreaker(NewBreaker()))

	for i := 0; i < 5; i++ {
		_, _ = client.ListSales(context.Background())
	}
	_, err := client.ListSales(context.Background())
	var open *resilience.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if calls != 5 {
		t.Fatalf("transport calls = %d, want 5", calls)
	}
	if client.BreakerState() != "open" {
		t.Fatalf("BreakerState() = %q, want open", client.BreakerState())
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	client := testClient("tok", func(req *http.Request) (*http.Response, error) {
		return respond(http.StatusUnprocessableEntity, `{"message":"bad"}`), nil
	}, WithBreaker(NewBreaker()))

	for i := 0; i < 8; i++ {
		_, _ = client.ListSales(context.Background())
	}
	if client.BreakerState() != "closed" {
		t.Fatalf("BreakerState() = %q, want closed", client.BreakerState())
	}
}

func TestRouteTemplate(t *testing.T) {
	tests := map[string]string{
		"/produtos":                                "/produtos",
		"/produtos/abc-123/preco/historico":        "/produtos/{id}/preco/historico",
		"/financeiro/cartoes-contas/c1/regras":     "/financeiro/cartoes-contas/{id}/regras",
		"/financeiro/cartoes-contas/regras":        "/financeiro/cartoes-contas/regras",
		"/produtos/tamanhos/0f6b9a1e-aaaa-bbbb-cc": "/produtos/tamanhos/{id}",
	}
	for in, want := range tests {
		if got := routeTemplate(in); got != want {
			t.Fatalf("routeTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithTimeout(t *testing.T) {
	client := New("", "", WithTimeout(3*time.Second))
	if client.httpClient.Timeout != 3*time.Second {
		t.Fatalf("Timeout = %v, want 3s", client.httpClient.Timeout)
	}
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("BaseURL() = %q, want %q", client.BaseURL(), DefaultBaseURL)
	}
}
