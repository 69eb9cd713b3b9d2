// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeLeadDetails      QueryType = "lead_details"
	QueryTypeLeadQuoteHistory QueryType = "lead_quote_history"
	QueryTypeLatestQuote      QueryType = "latest_quote"
	QueryTypeQuoteVersion     QueryType = "quote_version"
	QueryTypeBlockedQuotes    QueryType = "blocked_quotes"
	QueryTypeLeadQuoteSummary QueryType = "lead_quote_summary"
)
