package catalog

import (
	"strings"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/forms"
	"github.com/lachiem1/estoque/internal/money"
)

// ProductForm is the new-product dialog. PriceMask holds the masked sale
// price as typed.
type ProductForm struct {
	Name       string
	TypeID     string
	ColorID    string
	MaterialID string
	SizeID     string
	Note       string
	PriceMask  string
}

func (f ProductForm) Validate() error {
	v := forms.New()
	v.Check(strings.TrimSpace(f.Name) != "", "nome", "Informe o nome do produto.")
	v.Check(money.ParseMask(f.PriceMask).IsPositive(), "precoVendaAtual", "Informe um preco de venda valido.")
	return v.Err()
}

// Request validates the form and builds the POST /produtos body. New
// products are always active.
func (f ProductForm) Request() (estoqueapi.ProductInput, error) {
	if err := f.Validate(); err != nil {
		return estoqueapi.ProductInput{}, err
	}
	price := money.ParseMask(f.PriceMask)
	active := true
	return estoqueapi.ProductInput{
		Name:       strings.TrimSpace(f.Name),
		TypeID:     f.TypeID,
		ColorID:    f.ColorID,
		MaterialID: f.MaterialID,
		SizeID:     f.SizeID,
		Note:       strings.TrimSpace(f.Note),
		Price:      &price,
		Active:     &active,
	}, nil
}

// PriceChange validates a masked price for POST /produtos/{id}/preco.
func PriceChange(mask string) (estoqueapi.PriceUpdate, error) {
	price := money.ParseMask(mask)
	v := forms.New()
	v.Check(price.IsPositive(), "precoVendaAtual", "Informe um valor numerico maior que zero.")
	if err := v.Err(); err != nil {
		return estoqueapi.PriceUpdate{}, err
	}
	return estoqueapi.PriceUpdate{Price: price}, nil
}

// HasMore reports whether another product page follows. When the API sends
// a total it decides; otherwise a full page implies more.
func HasMore(page *estoqueapi.ProductPage, requestedPage int) bool {
	if page == nil {
		return false
	}
	perPage := page.PerPage
	if perPage < 1 {
		perPage = estoqueapi.DefaultProductPageSize
	}
	current := requestedPage
	if page.Envelope && page.Page > 0 {
		current = page.Page
	}
	if page.Total != nil {
		return current*perPage < *page.Total
	}
	return len(page.Items) == perPage
}
