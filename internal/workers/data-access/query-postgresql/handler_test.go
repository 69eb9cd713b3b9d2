package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"cpq-workers/internal/common/logger"
	"cpq-workers/internal/models"
	"cpq-workers/internal/workers/data-access/query-postgresql/queries"
)

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createValidInput(queryType models.QueryType) *Input {
	input := &Input{
		QueryType: string(queryType),
	}

	switch queryType {
	case models.QueryTypeLeadDetails,
		models.QueryTypeLeadQuoteHistory,
		models.QueryTypeLatestQuote,
		models.QueryTypeLeadQuoteSummary:
		input.LeadID = "lead-123"
	case models.QueryTypeQuoteVersion:
		input.LeadID = "lead-123"
		input.VersionNumber = 2
	}

	return input
}

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		queryType      models.QueryType
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "lead details",
			queryType: models.QueryTypeLeadDetails,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "company_name", "contact_name", "contact_email", "contact_phone",
					"project_name", "project_address", "stage", "crm_deal_id", "owner_email",
					"created_at", "updated_at",
				}).AddRow(
					"lead-123", "Acme Builders", "Jane Smith", "jane@acme.com", "+15550001111",
					"HQ Renovation", "500 Market St", "proposal", "deal-900", "owner@scanco.com",
					"2026-01-01", "2026-02-01",
				)
				mock.ExpectQuery(`SELECT id, company_name, contact_name, contact_email, contact_phone, project_name, project_address, stage, crm_deal_id, owner_email, created_at, updated_at FROM leads WHERE id = \$1`).
					WithArgs("lead-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)
				assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "lead-123", data["id"])
				assert.Equal(t, "Acme Builders", data["companyName"])
				assert.Equal(t, "deal-900", data["crmDealId"])
				assert.Equal(t, "owner@scanco.com", data["ownerEmail"])
			},
		},
		{
			name:      "lead quote history",
			queryType: models.QueryTypeLeadQuoteHistory,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "version_number", "is_latest", "quote_number", "total_price",
					"engine_version", "integrity_status", "created_at",
				}).AddRow(
					"qv-2", 2, true, "Q-2026-0042", 18461.60, "1.4.0", "pass", "2026-02-10",
				).AddRow(
					"qv-1", 1, false, "Q-2026-0042", 17200.00, "1.4.0", "warning", "2026-01-20",
				)
				mock.ExpectQuery(`SELECT id, version_number, is_latest, quote_number, total_price, engine_version, integrity_status, created_at FROM quote_versions WHERE lead_id = \$1 ORDER BY version_number DESC`).
					WithArgs("lead-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, 2, len(data))
				assert.Equal(t, 2, data[0]["versionNumber"])
				assert.Equal(t, true, data[0]["isLatest"])
				assert.Equal(t, 1, data[1]["versionNumber"])
				assert.Equal(t, "warning", data[1]["integrityStatus"])
			},
		},
		{
			name:      "latest quote",
			queryType: models.QueryTypeLatestQuote,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "lead_id", "version_number", "quote_number", "total_price",
					"pricing_breakdown", "integrity_status", "engine_version", "created_at",
				}).AddRow(
					"qv-2", "lead-123", 2, "Q-2026-0042", 18461.60,
					[]byte(`{"marginTarget":0.35}`), "pass", "1.4.0", "2026-02-10",
				)
				mock.ExpectQuery(`SELECT id, lead_id, version_number, quote_number, total_price, pricing_breakdown, integrity_status, engine_version, created_at FROM quote_versions WHERE lead_id = \$1 AND is_latest = true`).
					WithArgs("lead-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "qv-2", data["id"])
				assert.Equal(t, 2, data["versionNumber"])

				breakdown := data["pricingBreakdown"].(map[string]interface{})
				assert.Equal(t, 0.35, breakdown["marginTarget"])
			},
		},
		{
			name:      "quote version by number",
			queryType: models.QueryTypeQuoteVersion,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "lead_id", "version_number", "quote_number", "total_price",
					"pricing_breakdown", "integrity_status", "engine_version", "created_at",
				}).AddRow(
					"qv-2", "lead-123", 2, "Q-2026-0042", 18461.60,
					[]byte(`{}`), "pass", "1.4.0", "2026-02-10",
				)
				mock.ExpectQuery(`SELECT id, lead_id, version_number, quote_number, total_price, pricing_breakdown, integrity_status, engine_version, created_at FROM quote_versions WHERE lead_id = \$1 AND version_number = \$2`).
					WithArgs("lead-123", 2).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "Q-2026-0042", data["quoteNumber"])
			},
		},
		{
			name:      "blocked quotes",
			queryType: models.QueryTypeBlockedQuotes,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "lead_id", "version_number", "quote_number",
					"total_price", "created_at", "company_name", "owner_email",
				}).AddRow(
					"qv-9", "lead-777", 3, "Q-2026-0099", 9200.00, "2026-02-12", "Delta Corp", "owner@scanco.com",
				)
				mock.ExpectQuery(`SELECT qv.id, qv.lead_id, qv.version_number, qv.quote_number, qv.total_price, qv.created_at, l.company_name, l.owner_email FROM quote_versions qv JOIN leads l ON l.id = qv.lead_id WHERE qv.is_latest = true AND qv.integrity_status = 'blocked' ORDER BY qv.created_at DESC`).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "lead-777", data[0]["leadId"])
				assert.Equal(t, "Delta Corp", data[0]["companyName"])
			},
		},
		{
			name:      "lead quote summary",
			queryType: models.QueryTypeLeadQuoteSummary,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"quote_number", "version_number", "total_price", "integrity_status", "version_count",
				}).AddRow(
					"Q-2026-0042", 2, 18461.60, "pass", 2,
				)
				mock.ExpectQuery(`SELECT qv.quote_number, qv.version_number, qv.total_price, qv.integrity_status,`).
					WithArgs("lead-123").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "lead-123", data["leadId"])
				assert.Equal(t, 2, data["latestVersion"])
				assert.Equal(t, 2, data["versionCount"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			input := createValidInput(tt.queryType)

			output, err := handler.execute(context.Background(), input)

			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())

			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestHandler_Execute_QueryErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		mockQuery     func(mock sqlmock.Sqlmock)
		expectedErr   error
		errorContains string
	}{
		{
			name: "unknown query type",
			input: &Input{
				QueryType: "unknown_query",
			},
			expectedErr:   ErrInvalidQueryType,
			errorContains: "INVALID_QUERY_TYPE",
		},
		{
			name:  "database error",
			input: createValidInput(models.QueryTypeLeadDetails),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, company_name`).
					WithArgs("lead-123").
					WillReturnError(errors.New("database connection failed"))
			},
			expectedErr:   ErrQueryExecutionFailed,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name: "missing lead ID",
			input: &Input{
				QueryType: string(models.QueryTypeLatestQuote),
			},
			expectedErr:   queries.ErrMissingParam,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name: "quote version without version number",
			input: &Input{
				QueryType: string(models.QueryTypeQuoteVersion),
				LeadID:    "lead-123",
			},
			expectedErr:   queries.ErrMissingParam,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
		{
			name:  "no rows found",
			input: createValidInput(models.QueryTypeLatestQuote),
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, lead_id, version_number`).
					WithArgs("lead-123").
					WillReturnError(sql.ErrNoRows)
			},
			expectedErr:   ErrQueryExecutionFailed,
			errorContains: "QUERY_EXECUTION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			if tt.mockQuery != nil {
				tt.mockQuery(mock)
			}

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			output, err := handler.execute(context.Background(), tt.input)

			assert.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr) || errors.Is(err, ErrQueryExecutionFailed))
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Nil(t, output)
		})
	}
}

func TestHandler_EdgeCases(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	t.Run("nil input", func(t *testing.T) {
		output, err := handler.execute(context.Background(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "input cannot be nil")
		assert.Nil(t, output)
	})

	t.Run("empty query type", func(t *testing.T) {
		input := &Input{
			QueryType: "",
		}
		output, err := handler.execute(context.Background(), input)
		assert.Error(t, err)
		assert.Nil(t, output)
	})

	t.Run("empty history returns zero rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create mock: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(`SELECT id, version_number, is_latest`).
			WithArgs("lead-123").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "version_number", "is_latest", "quote_number", "total_price",
				"engine_version", "integrity_status", "created_at",
			}))

		handler := NewHandler(createTestConfig(), db, createTestLogger(t))
		input := createValidInput(models.QueryTypeLeadQuoteHistory)

		output, err := handler.execute(context.Background(), input)

		assert.NoError(t, err)
		assert.NotNil(t, output)
		assert.Equal(t, 0, output.RowCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
