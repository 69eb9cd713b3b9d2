// internal/workers/quote/save-quote-version/models.go
package savequoteversion

import (
	"time"

	"cpq-workers/internal/models"
	"cpq-workers/internal/pricing/provider"
)

type Input struct {
	LeadID      string                `json:"leadId"`
	QuoteNumber string                `json:"quoteNumber,omitempty"`
	Snapshot    *provider.Snapshot    `json:"quoteSnapshot"`
	Areas       []models.AreaSnapshot `json:"areas,omitempty"`
	Risks       []string              `json:"risks,omitempty"`
}

type Output struct {
	VersionID       string    `json:"versionId"`
	LeadID          string    `json:"leadId"`
	VersionNumber   int       `json:"versionNumber"`
	IsLatest        bool      `json:"isLatest"`
	QuoteNumber     string    `json:"quoteNumber"`
	TotalPrice      float64   `json:"totalPrice"`
	IntegrityStatus string    `json:"integrityStatus"`
	SavedAt         time.Time `json:"savedAt"`
}
