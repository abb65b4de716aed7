// Package catalog validates product, category and contact input before it
// is sent to the API.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/forms"
)

var ErrUnknownCategory = errors.New("unknown catalog category")

// Category describes one of the product catalogs.
type Category struct {
	Kind      estoqueapi.CatalogKind
	Label     string
	CodeLabel string
	CodeLen   int
	// PadCode left-pads short codes with zeros to CodeLen.
	PadCode bool
}

var Categories = []Category{
	{Kind: estoqueapi.CatalogTypes, Label: "Tipos", CodeLabel: "Código (2 letras)", CodeLen: 2},
	{Kind: estoqueapi.CatalogColors, Label: "Cores", CodeLabel: "Código (3 letras)", CodeLen: 3},
	{Kind: estoqueapi.CatalogMaterials, Label: "Materiais", CodeLabel: "Código (3 letras)", CodeLen: 3},
	{Kind: estoqueapi.CatalogSizes, Label: "Tamanhos", CodeLabel: "Código (até 3 caracteres)", CodeLen: 3, PadCode: true},
}

// CategoryFor looks up the catalog of kind.
func CategoryFor(kind estoqueapi.CatalogKind) (Category, error) {
	for _, c := range Categories {
		if c.Kind == kind {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, kind)
}

// NormalizeCode uppercases a catalog code. Size codes are cut to three
// characters and left-padded with "0", so "p" becomes "00P".
func NormalizeCode(kind estoqueapi.CatalogKind, raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if kind != estoqueapi.CatalogSizes || code == "" {
		return code
	}
	if utf8.RuneCountInString(code) > 3 {
		code = string([]rune(code)[:3])
	}
	for utf8.RuneCountInString(code) < 3 {
		code = "0" + code
	}
	return code
}

// CatalogEntry validates and builds the POST body for a new catalog entry.
func CatalogEntry(kind estoqueapi.CatalogKind, name, code string) (estoqueapi.CatalogInput, error) {
	cat, err := CategoryFor(kind)
	if err != nil {
		return estoqueapi.CatalogInput{}, err
	}

	v := forms.New()
	name = strings.TrimSpace(name)
	v.Check(name != "", "nome", "Informe o nome.")

	normalized := NormalizeCode(kind, code)
	switch {
	case normalized == "" && kind == estoqueapi.CatalogSizes:
		v.AddError("codigo", "Informe o código do tamanho")
	case normalized == "":
		v.AddError("codigo", "Informe o código.")
	case utf8.RuneCountInString(normalized) > cat.CodeLen:
		v.AddError("codigo", fmt.Sprintf("O código deve ter no máximo %d caracteres.", cat.CodeLen))
	}
	if err := v.Err(); err != nil {
		return estoqueapi.CatalogInput{}, err
	}
	return estoqueapi.CatalogInput{Name: name, Code: normalized}, nil
}
