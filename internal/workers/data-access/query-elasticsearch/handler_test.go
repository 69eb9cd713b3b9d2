package queryelasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cpq-workers/internal/common/logger"
)

func createTestConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createRealElasticsearchClient(t *testing.T) *elasticsearch.Client {
	cfg := elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
	}

	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		t.Skipf("Skipping test: Failed to create Elasticsearch client: %v", err)
		return nil
	}

	res, err := esClient.Info()
	if err != nil {
		t.Skipf("Skipping test: Elasticsearch container not responding: %v", err)
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		t.Skipf("Skipping test: Elasticsearch error: %s", res.String())
		return nil
	}

	return esClient
}

func setupQuoteTestData(t *testing.T, esClient *elasticsearch.Client) {
	esClient.Indices.Delete([]string{"quotes"}, esClient.Indices.Delete.WithIgnoreUnavailable(true))

	indexBody := `{
		"mappings": {
			"properties": {
				"lead_id": {"type": "keyword"},
				"company_name": {"type": "text"},
				"project_name": {"type": "text"},
				"quote_number": {"type": "keyword"},
				"building_type": {"type": "keyword"},
				"total_price": {"type": "double"},
				"integrity_status": {"type": "keyword"},
				"is_latest": {"type": "boolean"},
				"created_at": {"type": "date"}
			}
		}
	}`

	res, err := esClient.Indices.Create(
		"quotes",
		esClient.Indices.Create.WithBody(strings.NewReader(indexBody)),
	)
	require.NoError(t, err, "Failed to create index")
	res.Body.Close()

	testDocs := []map[string]interface{}{
		{
			"lead_id":          "lead-1",
			"company_name":     "Acme Builders",
			"project_name":     "HQ Renovation",
			"quote_number":     "Q-2026-0001",
			"building_type":    "office",
			"total_price":      18461.60,
			"integrity_status": "pass",
			"is_latest":        true,
			"created_at":       "2026-02-10",
		},
		{
			"lead_id":          "lead-2",
			"company_name":     "Mercy Hospital",
			"project_name":     "East Wing Scan",
			"quote_number":     "Q-2026-0002",
			"building_type":    "hospital",
			"total_price":      92000.00,
			"integrity_status": "warning",
			"is_latest":        true,
			"created_at":       "2026-02-12",
		},
		{
			"lead_id":          "lead-3",
			"company_name":     "Delta Corp",
			"project_name":     "Warehouse Survey",
			"quote_number":     "Q-2026-0003",
			"building_type":    "industrial",
			"total_price":      9200.00,
			"integrity_status": "blocked",
			"is_latest":        true,
			"created_at":       "2026-02-14",
		},
		{
			"lead_id":          "lead-1",
			"company_name":     "Acme Builders",
			"project_name":     "HQ Renovation",
			"quote_number":     "Q-2026-0001",
			"building_type":    "office",
			"total_price":      17200.00,
			"integrity_status": "warning",
			"is_latest":        false,
			"created_at":       "2026-01-20",
		},
	}

	for i, doc := range testDocs {
		docJSON, _ := json.Marshal(doc)
		res, err := esClient.Index(
			"quotes",
			strings.NewReader(string(docJSON)),
			esClient.Index.WithDocumentID(fmt.Sprintf("%d", i+1)),
			esClient.Index.WithRefresh("wait_for"),
		)
		require.NoError(t, err, "Failed to index document %d: %v", i+1, doc)
		res.Body.Close()
	}

	_, err = esClient.Indices.Refresh(esClient.Indices.Refresh.WithIndex("quotes"))
	require.NoError(t, err, "Failed to refresh index")
}

func TestHandler_QuoteSearch_Integration(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	setupQuoteTestData(t, esClient)

	handler := NewHandler(createTestConfig(), esClient, createTestLogger(t))

	t.Run("match all latest", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName: "quotes",
			QueryType: "quote_search",
			Filters:   map[string]interface{}{},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), output.TotalHits)
	})

	t.Run("text search", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName: "quotes",
			QueryType: "quote_search",
			Filters: map[string]interface{}{
				"keywords": "Acme",
			},
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), output.TotalHits)
		assert.Equal(t, "Acme Builders", output.Data[0]["company_name"])
	})

	t.Run("status filter", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName:       "quotes",
			QueryType:       "quote_search",
			IntegrityStatus: "blocked",
			Filters:         map[string]interface{}{},
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), output.TotalHits)
		assert.Equal(t, "Q-2026-0003", output.Data[0]["quote_number"])
	})

	t.Run("value range", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName: "quotes",
			QueryType: "quote_search",
			Filters: map[string]interface{}{
				"valueRange": map[string]interface{}{
					"min": float64(10000),
					"max": float64(100000),
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), output.TotalHits)
	})

	t.Run("all versions", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName: "quotes",
			QueryType: "quote_search",
			Filters: map[string]interface{}{
				"includeAllVersions": true,
				"leadId":             "lead-1",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), output.TotalHits)
	})
}

func TestHandler_Execute_InputErrors(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, createTestLogger(t))

	t.Run("nil input", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), nil)
		assert.Error(t, err)
		assert.Nil(t, output)
	})

	t.Run("missing index", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			QueryType: "quote_search",
			Filters:   map[string]interface{}{},
		})
		assert.ErrorIs(t, err, ErrIndexNotFound)
		assert.Nil(t, output)
	})

	t.Run("unknown query type", func(t *testing.T) {
		output, err := handler.Execute(context.Background(), &Input{
			IndexName: "quotes",
			QueryType: "bogus",
			Filters:   map[string]interface{}{},
		})
		assert.ErrorIs(t, err, ErrSearchQueryFailed)
		assert.Nil(t, output)
	})
}
