package catalog

import (
	"strings"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/money"
)

// ContactForm holds the fields shared by the customer and supplier dialogs.
type ContactForm struct {
	Name      string
	Phone     string
	Email     string
	Notes     string
	Address   string
	Principal bool
}

// Customer validates f and builds the POST /clientes body.
func (f ContactForm) Customer() (estoqueapi.CustomerInput, error) {
	in := estoqueapi.CustomerInput{
		Name:  strings.TrimSpace(f.Name),
		Phone: money.MaskPhone(f.Phone),
		Email: strings.TrimSpace(f.Email),
		Notes: strings.TrimSpace(f.Notes),
	}
	v := forms.New()
	v.Struct(in)
	if err := v.Err(); err != nil {
		return estoqueapi.CustomerInput{}, err
	}
	return in, nil
}

// Supplier validates f and builds the supplier body.
func (f ContactForm) Supplier() (estoqueapi.SupplierInput, error) {
	in := estoqueapi.SupplierInput{
		Name:      strings.TrimSpace(f.Name),
		Address:   strings.TrimSpace(f.Address),
		Phone:     money.MaskPhone(f.Phone),
		Email:     strings.TrimSpace(f.Email),
		Notes:     strings.TrimSpace(f.Notes),
		Principal: f.Principal,
	}
	v := forms.New()
	v.Struct(in)
	if err := v.Err(); err != nil {
		return estoqueapi.SupplierInput{}, err
	}
	return in, nil
}
