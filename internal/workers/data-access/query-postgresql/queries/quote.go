// internal/workers/data-access/query-postgresql/queries/quote.go
package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

func LeadQuoteHistory(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, version_number, is_latest, quote_number, total_price,
		       engine_version, integrity_status, created_at
		FROM quote_versions
		WHERE lead_id = $1
		ORDER BY version_number DESC`, leadID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, quoteNumber, engineVersion, integrityStatus, createdAt string
		var versionNumber int
		var isLatest bool
		var totalPrice float64
		err := rows.Scan(&id, &versionNumber, &isLatest, &quoteNumber, &totalPrice,
			&engineVersion, &integrityStatus, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":              id,
			"versionNumber":   versionNumber,
			"isLatest":        isLatest,
			"quoteNumber":     quoteNumber,
			"totalPrice":      totalPrice,
			"engineVersion":   engineVersion,
			"integrityStatus": integrityStatus,
			"createdAt":       createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func LatestQuote(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	row := db.QueryRowContext(ctx, `
		SELECT id, lead_id, version_number, quote_number, total_price,
		       pricing_breakdown, integrity_status, engine_version, created_at
		FROM quote_versions
		WHERE lead_id = $1 AND is_latest = true`, leadID)

	result, err := scanQuoteRow(row)
	if err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func QuoteVersionByNumber(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	versionNumber, ok := params["versionNumber"].(int)
	if !ok || versionNumber <= 0 {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	row := db.QueryRowContext(ctx, `
		SELECT id, lead_id, version_number, quote_number, total_price,
		       pricing_breakdown, integrity_status, engine_version, created_at
		FROM quote_versions
		WHERE lead_id = $1 AND version_number = $2`, leadID, versionNumber)

	result, err := scanQuoteRow(row)
	if err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func BlockedQuotes(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT qv.id, qv.lead_id, qv.version_number, qv.quote_number,
		       qv.total_price, qv.created_at, l.company_name, l.owner_email
		FROM quote_versions qv
		JOIN leads l ON l.id = qv.lead_id
		WHERE qv.is_latest = true AND qv.integrity_status = 'blocked'
		ORDER BY qv.created_at DESC`)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, leadID, quoteNumber, createdAt, companyName string
		var ownerEmail sql.NullString
		var versionNumber int
		var totalPrice float64
		err := rows.Scan(&id, &leadID, &versionNumber, &quoteNumber,
			&totalPrice, &createdAt, &companyName, &ownerEmail)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":            id,
			"leadId":        leadID,
			"versionNumber": versionNumber,
			"quoteNumber":   quoteNumber,
			"totalPrice":    totalPrice,
			"createdAt":     createdAt,
			"companyName":   companyName,
			"ownerEmail":    ownerEmail.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func scanQuoteRow(row *sql.Row) (map[string]interface{}, error) {
	var id, leadID, quoteNumber, integrityStatus, engineVersion, createdAt string
	var versionNumber int
	var totalPrice float64
	var breakdownRaw []byte

	err := row.Scan(&id, &leadID, &versionNumber, &quoteNumber, &totalPrice,
		&breakdownRaw, &integrityStatus, &engineVersion, &createdAt)
	if err != nil {
		return nil, err
	}

	var breakdown map[string]interface{}
	if len(breakdownRaw) > 0 {
		if err := json.Unmarshal(breakdownRaw, &breakdown); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"id":               id,
		"leadId":           leadID,
		"versionNumber":    versionNumber,
		"quoteNumber":      quoteNumber,
		"totalPrice":       totalPrice,
		"pricingBreakdown": breakdown,
		"integrityStatus":  integrityStatus,
		"engineVersion":    engineVersion,
		"createdAt":        createdAt,
	}, nil
}
