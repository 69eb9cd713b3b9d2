// internal/workers/crm/sync-lead-quote/models.go
package syncleadquote

import "time"

type Input struct {
	LeadID          string  `json:"leadId"`
	CRMDealID       string  `json:"crmDealId,omitempty"`
	QuoteNumber     string  `json:"quoteNumber"`
	VersionNumber   int     `json:"versionNumber,omitempty"`
	TotalPrice      float64 `json:"totalPrice"`
	IntegrityStatus string  `json:"integrityStatus"`
	QuoteURL        string  `json:"quoteUrl,omitempty"`
}

type Output struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	DealID   string    `json:"dealId,omitempty"`
	Stage    string    `json:"stage,omitempty"`
	SyncedAt time.Time `json:"syncedAt,omitempty"`
}
