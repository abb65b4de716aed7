package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/forms"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		kind estoqueapi.CatalogKind
		in   string
		want string
	}{
		{estoqueapi.CatalogSizes, "p", "00P"},
		{estoqueapi.CatalogSizes, " gg ", "0GG"},
		{estoqueapi.CatalogSizes, "xxgg", "XXG"},
		{estoqueapi.CatalogSizes, "38", "038"},
		{estoqueapi.CatalogSizes, "", ""},
		{estoqueapi.CatalogColors, "azl", "AZL"},
		{estoqueapi.CatalogTypes, "co", "CO"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeCode(tc.kind, tc.in), "%s %q", tc.kind, tc.in)
	}
}

func TestCatalogEntry(t *testing.T) {
	in, err := CatalogEntry(estoqueapi.CatalogSizes, " Pequeno ", "p")
	require.NoError(t, err)
	assert.Equal(t, estoqueapi.CatalogInput{Name: "Pequeno", Code: "00P"}, in)

	_, err = CatalogEntry(estoqueapi.CatalogTypes, "Colar", "COL")
	var errs forms.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("codigo"))

	_, err = CatalogEntry(estoqueapi.CatalogSizes, "", "  ")
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("nome"))
	assert.True(t, errs.Has("codigo"))

	_, err = CatalogEntry("marcas", "x", "y")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestProductFormRequiresPositivePrice(t *testing.T) {
	f := ProductForm{Name: "Colar", PriceMask: "0,00"}
	var errs forms.Errors
	require.True(t, errors.As(f.Validate(), &errs))
	assert.True(t, errs.Has("precoVendaAtual"))
	assert.False(t, errs.Has("nome"))

	f.PriceMask = "89,90"
	in, err := f.Request()
	require.NoError(t, err)
	require.NotNil(t, in.Price)
	assert.True(t, in.Price.Equal(decimal.RequireFromString("89.90")), "price = %s", in.Price)
	require.NotNil(t, in.Active)
	assert.True(t, *in.Active)
}

func TestProductFormRequiresName(t *testing.T) {
	_, err := ProductForm{Name: "  ", PriceMask: "10,00"}.Request()
	ve, ok := forms.First(err)
	require.True(t, ok)
	assert.Equal(t, "nome", ve.Field)
}

func TestPriceChange(t *testing.T) {
	_, err := PriceChange("")
	assert.Error(t, err)

	up, err := PriceChange("1.250,00")
	require.NoError(t, err)
	assert.True(t, up.Price.Equal(decimal.NewFromInt(1250)), "price = %s", up.Price)
}

func intPtr(n int) *int { return &n }

func TestHasMore(t *testing.T) {
	full := make([]estoqueapi.Product, estoqueapi.DefaultProductPageSize)

	assert.True(t, HasMore(&estoqueapi.ProductPage{Items: full, PerPage: 20}, 1), "bare list with a full page")
	assert.False(t, HasMore(&estoqueapi.ProductPage{Items: full[:3], PerPage: 20}, 1))

	env := &estoqueapi.ProductPage{Items: full, Envelope: true, Page: 2, PerPage: 20, Total: intPtr(40)}
	assert.False(t, HasMore(env, 1), "page reported by the envelope wins")

	env.Total = intPtr(41)
	assert.True(t, HasMore(env, 2))

	assert.False(t, HasMore(nil, 1))
}

func TestCustomerValidation(t *testing.T) {
	in, err := ContactForm{Name: " Ana ", Phone: "11987654321", Email: "ana@example.com"}.Customer()
	require.NoError(t, err)
	assert.Equal(t, "Ana", in.Name)
	assert.Equal(t, "(11) 98765-4321", in.Phone)

	_, err = ContactForm{Email: "not-an-email"}.Customer()
	var errs forms.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("nome"))
	assert.True(t, errs.Has("email"))
}

func TestSupplierValidation(t *testing.T) {
	in, err := ContactForm{Name: "Atacado", Address: " Rua 1 ", Phone: "1133334444", Principal: true}.Supplier()
	require.NoError(t, err)
	assert.Equal(t, "Rua 1", in.Address)
	assert.Equal(t, "(11) 3333-4444", in.Phone)
	assert.True(t, in.Principal)

	_, err = ContactForm{Name: ""}.Supplier()
	ve, ok := forms.First(err)
	require.True(t, ok)
	assert.Equal(t, "nome", ve.Field)
}
