package estoqueapi

import (
	"context"
	"net/url"
)

// ListPaymentTypes calls GET /financeiro/tipos-pagamento.
func (c *Client) ListPaymentTypes(ctx context.Context) ([]PaymentType, error) {
	var out []PaymentType
	if err := c.get(ctx, "/financeiro/tipos-pagamento", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePaymentType calls POST /financeiro/tipos-pagamento.
func (c *Client) CreatePaymentType(ctx context.Context, in PaymentTypeInput) error {
	return c.post(ctx, "/financeiro/tipos-pagamento", in, nil)
}

// ListCardAccounts calls GET /financeiro/cartoes-contas.
func (c *Client) ListCardAccounts(ctx context.Context) ([]CardAccount, error) {
	var out []CardAccount
	if err := c.get(ctx, "/financeiro/cartoes-contas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCardAccount calls POST /financeiro/cartoes-contas.
func (c *Client) CreateCardAccount(ctx context.Context, in CardAccountInput) error {
	return c.post(ctx, "/financeiro/cartoes-contas", in, nil)
}

// UpdateCardAccount calls PATCH /financeiro/cartoes-contas/{id}.
func (c *Client) UpdateCardAccount(ctx context.Context, id string, in CardAccountInput) error {
	return c.patch(ctx, "/financeiro/cartoes-contas/"+url.PathEscape(id), in, nil)
}

// CardRules calls GET /financeiro/cartoes-contas/{id}/regras.
func (c *Client) CardRules(ctx context.Context, cardID string) ([]CardRule, error) {
	var out []CardRule
	if err := c.get(ctx, "/financeiro/cartoes-contas/"+url.PathEscape(cardID)+"/regras", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].CardID == "" {
			out[i].CardID = cardID
		}
	}
	return out, nil
}

// SaveCardRule calls POST /financeiro/cartoes-contas/regras. The API
// upserts by card and tag.
func (c *Client) SaveCardRule(ctx context.Context, rule CardRule) error {
	return c.post(ctx, "/financeiro/cartoes-contas/regras", rule, nil)
}

// PayInvoice calls POST /financeiro/cartoes-contas/pagamentos, marking a
// card's monthly invoice as paid.
func (c *Client) PayInvoice(ctx context.Context, in InvoicePayment) error {
	return c.post(ctx, "/financeiro/cartoes-contas/pagamentos", in, nil)
}
