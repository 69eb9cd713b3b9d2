// internal/models/lead.go
package models

type Lead struct {
	ID             string `json:"id"`
	CompanyName    string `json:"companyName"`
	ContactName    string `json:"contactName"`
	ContactEmail   string `json:"contactEmail"`
	ContactPhone   string `json:"contactPhone,omitempty"`
	ProjectName    string `json:"projectName"`
	ProjectAddress string `json:"projectAddress,omitempty"`
	Stage          string `json:"stage"`
	CRMDealID      string `json:"crmDealId,omitempty"`
	OwnerEmail     string `json:"ownerEmail,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type LeadQuoteSummary struct {
	LeadID          string  `json:"leadId"`
	QuoteNumber     string  `json:"quoteNumber"`
	LatestVersion   int     `json:"latestVersion"`
	TotalPrice      float64 `json:"totalPrice"`
	IntegrityStatus string  `json:"integrityStatus"`
	VersionCount    int     `json:"versionCount"`
}
