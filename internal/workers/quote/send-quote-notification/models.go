// internal/workers/quote/send-quote-notification/models.go
package sendquotenotification

import "cpq-workers/internal/pricing/engine"

type Input struct {
	LeadID          string                 `json:"leadId"`
	QuoteNumber     string                 `json:"quoteNumber"`
	IntegrityStatus string                 `json:"integrityStatus"`
	TotalPrice      float64                `json:"totalPrice"`
	MarginWarnings  []engine.MarginWarning `json:"marginWarnings,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "skipped", "failed"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)
