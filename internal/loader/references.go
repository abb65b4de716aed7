package loader

import (
	"context"
	"fmt"

	"github.com/lachiem1/estoque/internal/estoqueapi"
)

const ruleWorkers = 4

// SaleSource is the part of the API client the sale screen reads from.
type SaleSource interface {
	ListPaymentTypes(ctx context.Context) ([]estoqueapi.PaymentType, error)
	ListCardAccounts(ctx context.Context) ([]estoqueapi.CardAccount, error)
	AllProducts(ctx context.Context) ([]estoqueapi.Product, error)
	CardRules(ctx context.Context, cardID string) ([]estoqueapi.CardRule, error)
}

// SaleReferences is the reference data a sale draft is built from.
type SaleReferences struct {
	PaymentTypes []estoqueapi.PaymentType
	Cards        []estoqueapi.CardAccount
	Products     []estoqueapi.Product
	// Rules is keyed by card ID.
	Rules map[string][]estoqueapi.CardRule
}

// LoadSaleReferences fetches payment types, cards and products in parallel,
// then the fee rules of every card.
func LoadSaleReferences(ctx context.Context, src SaleSource) (*SaleReferences, error) {
	refs := &SaleReferences{Rules: map[string][]estoqueapi.CardRule{}}

	err := FetchAll(ctx,
		func(ctx context.Context) error {
			types, err := src.ListPaymentTypes(ctx)
			if err != nil {
				return fmt.Errorf("load payment types: %w", err)
			}
			refs.PaymentTypes = types
			return nil
		},
		func(ctx context.Context) error {
			cards, err := src.ListCardAccounts(ctx)
			if err != nil {
				return fmt.Errorf("load cards: %w", err)
			}
			refs.Cards = cards
			return nil
		},
		func(ctx context.Context) error {
			products, err := src.AllProducts(ctx)
			if err != nil {
				return fmt.Errorf("load products: %w", err)
			}
			refs.Products = products
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(refs.Cards))
	for _, c := range refs.Cards {
		ids = append(ids, c.ID)
	}
	rules, err := FetchEach(ctx, ids, ruleWorkers, src.CardRules)
	if err != nil {
		return nil, fmt.Errorf("load card rules: %w", err)
	}
	for i, id := range ids {
		refs.Rules[id] = rules[i]
	}
	return refs, nil
}
