// internal/models/quote.go
package models

import "time"

// QuoteVersion is one immutable snapshot in the quote_versions table. A lead
// accumulates versions over its life; exactly one row per lead carries
// is_latest = true.
type QuoteVersion struct {
	ID               string                 `json:"id"`
	LeadID           string                 `json:"leadId"`
	VersionNumber    int                    `json:"versionNumber"`
	IsLatest         bool                   `json:"isLatest"`
	QuoteNumber      string                 `json:"quoteNumber"`
	TotalPrice       float64                `json:"totalPrice"`
	PricingBreakdown map[string]interface{} `json:"pricingBreakdown"`
	Areas            []AreaSnapshot         `json:"areas"`
	Risks            []string               `json:"risks"`
	InternalCosts    *InternalCostBreakdown `json:"internalCosts,omitempty"`
	ExternalQuoteURL string                 `json:"externalQuoteUrl,omitempty"`
	EngineVersion    string                 `json:"engineVersion"`
	IntegrityStatus  string                 `json:"integrityStatus"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// AreaSnapshot records the scoped areas exactly as they were priced, so a
// saved version can be replayed or audited without the original lead form.
type AreaSnapshot struct {
	Name        string   `json:"name"`
	SquareFeet  float64  `json:"squareFeet"`
	Disciplines []string `json:"disciplines"`
	LOD         string   `json:"lod"`
	Tier        string   `json:"tier"`
}

// InternalCostBreakdown holds the vendor-side totals. It is never exposed to
// client-facing surfaces; persistence keeps it for margin reporting only.
type InternalCostBreakdown struct {
	ModelingCost float64 `json:"modelingCost"`
	TravelCost   float64 `json:"travelCost"`
	ServiceCost  float64 `json:"serviceCost"`
	TotalCost    float64 `json:"totalCost"`
}

// Integrity statuses attached to a calculated quote.
const (
	IntegrityPass    = "pass"
	IntegrityWarning = "warning"
	IntegrityBlocked = "blocked"
)
