package estoqueapi

import (
	"context"
	"net/url"
)

// ListSuppliers calls GET /produtos/fornecedores.
func (c *Client) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	var out []Supplier
	if err := c.get(ctx, "/produtos/fornecedores", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSupplier calls POST /produtos/fornecedores.
func (c *Client) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	var out Supplier
	if err := c.post(ctx, "/produtos/fornecedores", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSupplier calls POST /produtos/fornecedores/{id}.
func (c *Client) UpdateSupplier(ctx context.Context, id string, in SupplierInput) error {
	return c.post(ctx, "/produtos/fornecedores/"+url.PathEscape(id), in, nil)
}

// DeleteSupplier calls DELETE /produtos/fornecedores/{id}. The API refuses
// when purchases still reference the supplier.
func (c *Client) DeleteSupplier(ctx context.Context, id string) error {
	return c.delete(ctx, "/produtos/fornecedores/"+url.PathEscape(id))
}

// ListCustomers calls GET /clientes.
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	if err := c.get(ctx, "/clientes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCustomer calls POST /clientes.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	var out Customer
	if err := c.post(ctx, "/clientes", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
