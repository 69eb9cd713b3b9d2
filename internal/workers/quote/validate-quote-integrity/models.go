// internal/workers/quote/validate-quote-integrity/models.go
package validatequoteintegrity

type Input struct {
	LeadID                    string `json:"leadId"`
	BillingAdjustmentApproved bool   `json:"billingAdjustmentApproved,omitempty"`
}

type Output struct {
	Approved                bool    `json:"approved"`
	LeadID                  string  `json:"leadId"`
	VersionNumber           int     `json:"versionNumber"`
	QuoteNumber             string  `json:"quoteNumber"`
	TotalPrice              float64 `json:"totalPrice"`
	IntegrityStatus         string  `json:"integrityStatus"`
	RequiresAcknowledgment  bool    `json:"requiresAcknowledgment,omitempty"`
	BillingOverrideRecorded bool    `json:"billingOverrideRecorded,omitempty"`
	Source                  string  `json:"source"` // cache or database
}
