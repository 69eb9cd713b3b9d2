// Package provider abstracts over the two ways a quote gets priced: the
// internal engine and the embedded third-party CPQ tool. Both terminate in
// the same persistable snapshot, so the save path never special-cases where
// a price came from.
package provider

import (
	"context"
	"fmt"
	"time"

	"cpq-workers/internal/models"
	"cpq-workers/internal/pricing/engine"
	"cpq-workers/internal/pricing/rates"
)

const (
	NameEngine   = "engine"
	NameExternal = "external"
)

// Snapshot is the provider-neutral persisted-quote payload handed to the
// version-save path.
type Snapshot struct {
	TotalPrice       float64                       `json:"totalPrice"`
	PricingBreakdown map[string]interface{}        `json:"pricingBreakdown"`
	InternalCosts    *models.InternalCostBreakdown `json:"internalCosts,omitempty"`
	IntegrityStatus  string                        `json:"integrityStatus"`
	EngineVersion    string                        `json:"engineVersion"`
	ExternalQuoteURL string                        `json:"externalQuoteUrl,omitempty"`
}

type Provider interface {
	Name() string
	Quote(ctx context.Context, req *engine.Request) (*Snapshot, *engine.Result, error)
}

// EngineProvider prices with the internal engine against the live rate table
// snapshot taken at call time.
type EngineProvider struct {
	store *rates.Store
	opts  engine.Options
}

func NewEngineProvider(store *rates.Store, opts engine.Options) *EngineProvider {
	return &EngineProvider{store: store, opts: opts}
}

func (p *EngineProvider) Name() string { return NameEngine }

func (p *EngineProvider) Quote(_ context.Context, req *engine.Request) (*Snapshot, *engine.Result, error) {
	eng := engine.New(p.store.Get(), p.opts)

	result, err := eng.Calculate(req)
	if err != nil {
		return nil, nil, err
	}

	var travelCost, serviceCost, modelingCost float64
	for _, item := range result.LineItems {
		switch item.Category {
		case engine.CategoryDiscipline:
			modelingCost += item.UpteamCost
		case engine.CategoryTravel:
			travelCost += item.UpteamCost
		case engine.CategoryService:
			serviceCost += item.UpteamCost
		}
	}

	return &Snapshot{
		TotalPrice: result.TotalClientPrice,
		PricingBreakdown: map[string]interface{}{
			"items":          result.LineItems,
			"subtotals":      result.Subtotals,
			"areaSubtotals":  result.AreaSubtotals,
			"marginTarget":   result.MarginTarget,
			"marginWarnings": result.MarginWarnings,
		},
		InternalCosts: &models.InternalCostBreakdown{
			ModelingCost: modelingCost,
			TravelCost:   travelCost,
			ServiceCost:  serviceCost,
			TotalCost:    result.TotalUpteamCost,
		},
		IntegrityStatus: result.IntegrityStatus,
		EngineVersion:   result.EngineVersion,
	}, result, nil
}

// ExternalQuote is the saved-quote event payload the embedded CPQ tool emits.
type ExternalQuote struct {
	TotalPrice float64                `json:"totalPrice"`
	Breakdown  map[string]interface{} `json:"breakdown"`
	QuoteURL   string                 `json:"quoteUrl"`
	SavedAt    time.Time              `json:"savedAt"`
}

// ExternalProvider persists the embedded tool's snapshot as-is. The external
// tool's math is not re-validated; only structural presence is checked.
type ExternalProvider struct {
	quote *ExternalQuote
}

func NewExternalProvider(quote *ExternalQuote) *ExternalProvider {
	return &ExternalProvider{quote: quote}
}

func (p *ExternalProvider) Name() string { return NameExternal }

func (p *ExternalProvider) Quote(_ context.Context, _ *engine.Request) (*Snapshot, *engine.Result, error) {
	if p.quote == nil {
		return nil, nil, fmt.Errorf("no external quote snapshot attached")
	}
	if p.quote.TotalPrice <= 0 {
		return nil, nil, fmt.Errorf("external quote has no positive total price")
	}

	return &Snapshot{
		TotalPrice:       p.quote.TotalPrice,
		PricingBreakdown: p.quote.Breakdown,
		IntegrityStatus:  models.IntegrityPass,
		EngineVersion:    "external",
		ExternalQuoteURL: p.quote.QuoteURL,
	}, nil, nil
}
