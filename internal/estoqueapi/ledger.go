package estoqueapi

import (
	"context"
	"net/url"
)

// ListPurchases calls GET /compras.
func (c *Client) ListPurchases(ctx context.Context) ([]Purchase, error) {
	var out []Purchase
	if err := c.get(ctx, "/compras", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPurchase calls GET /compras/{id}.
func (c *Client) GetPurchase(ctx context.Context, id string) (*Purchase, error) {
	var out Purchase
	if err := c.get(ctx, "/compras/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePurchase calls POST /compras.
func (c *Client) CreatePurchase(ctx context.Context, in PurchaseInput) error {
	return c.post(ctx, "/compras", in, nil)
}

// ListPurchasePayments calls GET /compras/pagamentos.
func (c *Client) ListPurchasePayments(ctx context.Context) ([]PurchasePayment, error) {
	var out []PurchasePayment
	if err := c.get(ctx, "/compras/pagamentos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePurchasePayment calls PATCH /compras/pagamentos/{id}.
func (c *Client) UpdatePurchasePayment(ctx context.Context, id string, in PaymentUpdate) error {
	return c.patch(ctx, "/compras/pagamentos/"+url.PathEscape(id), in, nil)
}

// ListExpenses calls GET /gastos with an already-built filter query.
func (c *Client) ListExpenses(ctx context.Context, query url.Values) ([]Expense, error) {
	var out []Expense
	if err := c.get(ctx, "/gastos", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetExpense calls GET /gastos/{id}; the detail carries its installments.
func (c *Client) GetExpense(ctx context.Context, id string) (*Expense, error) {
	var out Expense
	if err := c.get(ctx, "/gastos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateExpense calls POST /gastos.
func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) error {
	return c.post(ctx, "/gastos", in, nil)
}

// ListSales calls GET /vendas.
func (c *Client) ListSales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	if err := c.get(ctx, "/vendas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale calls POST /vendas.
func (c *Client) CreateSale(ctx context.Context, in SaleInput) (*Sale, error) {
	var out Sale
	if err := c.post(ctx, "/vendas", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
