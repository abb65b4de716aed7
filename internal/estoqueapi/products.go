package estoqueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultProductPageSize is the page size the product list asks for.
const DefaultProductPageSize = 20

// ProductFilter narrows GET /produtos. Zero values are left out of the query.
type ProductFilter struct {
	Page     int
	Limit    int
	Search   string
	Type     string
	Color    string
	Material string
	Size     string
}

func (f ProductFilter) values() url.Values {
	q := url.Values{}
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = DefaultProductPageSize
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Type != "" {
		q.Set("tipo", f.Type)
	}
	if f.Color != "" {
		q.Set("cor", f.Color)
	}
	if f.Material != "" {
		q.Set("material", f.Material)
	}
	if f.Size != "" {
		q.Set("tamanho", f.Size)
	}
	return q
}

// ListProducts calls GET /produtos with filter.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	var raw json.RawMessage
	q := filter.values()
	if err := c.get(ctx, "/produtos", q, &raw); err != nil {
		return nil, err
	}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	out := &ProductPage{Page: page, PerPage: limit, Items: []Product{}}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out.Items); err != nil {
			return nil, fmt.Errorf("decode product list: %w", err)
		}
		return out, nil
	}

	var env struct {
		Items   []Product `json:"items"`
		Total   *int      `json:"total"`
		Page    int       `json:"page"`
		PerPage int       `json:"perPage"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}
	out.Envelope = true
	if env.Items != nil {
		out.Items = env.Items
	}
	out.Total = env.Total
	if env.Page > 0 {
		out.Page = env.Page
	}
	if env.PerPage > 0 {
		out.PerPage = env.PerPage
	}
	return out, nil
}

// AllProducts fetches the unfiltered list used by the purchase and sale
// pickers.
func (c *Client) AllProducts(ctx context.Context) ([]Product, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/produtos", nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Product{}, nil
	}
	if trimmed[0] == '[' {
		var list []Product
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode product list: %w", err)
		}
		return list, nil
	}
	var env struct {
		Items []Product `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}
	if env.Items == nil {
		return []Product{}, nil
	}
	return env.Items, nil
}

// CreateProduct calls POST /produtos.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out Product
	if err := c.post(ctx, "/produtos", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct calls POST /produtos/{id}.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductUpdate) error {
	return c.post(ctx, "/produtos/"+url.PathEscape(id), in, nil)
}

// DeleteProduct calls DELETE /produtos/{id}.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.delete(ctx, "/produtos/"+url.PathEscape(id))
}

// SetProductPrice calls POST /produtos/{id}/preco.
func (c *Client) SetProductPrice(ctx context.Context, id string, in PriceUpdate) error {
	return c.post(ctx, "/produtos/"+url.PathEscape(id)+"/preco", in, nil)
}

// PriceHistory calls GET /produtos/{id}/preco/historico.
func (c *Client) PriceHistory(ctx context.Context, id string) ([]PriceChange, error) {
	var out []PriceChange
	if err := c.get(ctx, "/produtos/"+url.PathEscape(id)+"/preco/historico", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogKind names one of the product catalogs.
type CatalogKind string

const (
	CatalogTypes     CatalogKind = "tipos"
	CatalogColors    CatalogKind = "cores"
	CatalogMaterials CatalogKind = "materiais"
	CatalogSizes     CatalogKind = "tamanhos"
)

// CatalogKinds lists the catalogs in display order.
var CatalogKinds = []CatalogKind{CatalogTypes, CatalogColors, CatalogMaterials, CatalogSizes}

func (k CatalogKind) path() string {
	return "/produtos/" + string(k)
}

// ListCatalog calls GET /produtos/{kind}.
func (c *Client) ListCatalog(ctx context.Context, kind CatalogKind) ([]Option, error) {
	var out []Option
	if err := c.get(ctx, kind.path(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCatalog calls POST /produtos/{kind}.
func (c *Client) CreateCatalog(ctx context.Context, kind CatalogKind, in CatalogInput) error {
	return c.post(ctx, kind.path(), in, nil)
}

// DeleteCatalog calls DELETE /produtos/{kind}/{id}.
func (c *Client) DeleteCatalog(ctx context.Context, kind CatalogKind, id string) error {
	return c.delete(ctx, kind.path()+"/"+url.PathEscape(id))
}
