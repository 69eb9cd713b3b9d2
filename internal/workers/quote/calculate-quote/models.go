// internal/workers/quote/calculate-quote/models.go
package calculatequote

import (
	"cpq-workers/internal/pricing/engine"
	"cpq-workers/internal/pricing/provider"
)

// Input is the calculate request as it arrives in job variables: the engine
// request fields at the top level, plus the provider override and the
// external tool's snapshot when the quote came from the embedded CPQ.
type Input struct {
	engine.Request
	Provider      string                  `json:"provider,omitempty"`
	ExternalQuote *provider.ExternalQuote `json:"externalQuote,omitempty"`
}

type Output struct {
	Success      bool                `json:"success"`
	Provider     string              `json:"provider,omitempty"`
	Quote        *engine.Result      `json:"quote,omitempty"`
	Snapshot     *provider.Snapshot  `json:"quoteSnapshot,omitempty"`
	ErrorCode    string              `json:"errorCode,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	FormErrors   []string            `json:"formErrors,omitempty"`
	FieldErrors  []engine.FieldError `json:"fieldErrors,omitempty"`
}
