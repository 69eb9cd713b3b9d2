// internal/workers/data-access/query-postgresql/queries/lead.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

func LeadDetails(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, companyName, contactName, contactEmail, stage string
	var contactPhone, projectName, projectAddress, crmDealID, ownerEmail sql.NullString
	var createdAt, updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, company_name, contact_name, contact_email, contact_phone,
		       project_name, project_address, stage, crm_deal_id, owner_email,
		       created_at, updated_at
		FROM leads
		WHERE id = $1`, leadID).Scan(
		&id, &companyName, &contactName,
		&contactEmail, &contactPhone,
		&projectName, &projectAddress,
		&stage, &crmDealID, &ownerEmail,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":             id,
		"companyName":    companyName,
		"contactName":    contactName,
		"contactEmail":   contactEmail,
		"contactPhone":   contactPhone.String,
		"projectName":    projectName.String,
		"projectAddress": projectAddress.String,
		"stage":          stage,
		"crmDealId":      crmDealID.String,
		"ownerEmail":     ownerEmail.String,
		"createdAt":      createdAt,
		"updatedAt":      updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func LeadQuoteSummary(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	leadID, ok := params["leadId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var quoteNumber, integrityStatus string
	var latestVersion, versionCount int
	var totalPrice float64

	err := db.QueryRowContext(ctx, `
		SELECT qv.quote_number, qv.version_number, qv.total_price, qv.integrity_status,
		       (SELECT COUNT(*) FROM quote_versions WHERE lead_id = $1) AS version_count
		FROM quote_versions qv
		WHERE qv.lead_id = $1 AND qv.is_latest = true`, leadID).Scan(
		&quoteNumber, &latestVersion,
		&totalPrice, &integrityStatus,
		&versionCount,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"leadId":          leadID,
		"quoteNumber":     quoteNumber,
		"latestVersion":   latestVersion,
		"totalPrice":      totalPrice,
		"integrityStatus": integrityStatus,
		"versionCount":    versionCount,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}
