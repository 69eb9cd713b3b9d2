// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "cpq-workers/internal/models"

type Input struct {
	QueryType     string                 `json:"queryType"`
	LeadID        string                 `json:"leadId,omitempty"`
	VersionNumber int                    `json:"versionNumber,omitempty"`
	Filters       map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryTypeLeadDetails      = models.QueryTypeLeadDetails
	QueryTypeLeadQuoteHistory = models.QueryTypeLeadQuoteHistory
	QueryTypeLatestQuote      = models.QueryTypeLatestQuote
	QueryTypeQuoteVersion     = models.QueryTypeQuoteVersion
	QueryTypeBlockedQuotes    = models.QueryTypeBlockedQuotes
	QueryTypeLeadQuoteSummary = models.QueryTypeLeadQuoteSummary
)
