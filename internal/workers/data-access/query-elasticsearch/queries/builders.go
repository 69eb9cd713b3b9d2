package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// ElasticsearchQuery defines the structure of a query request
type ElasticsearchQuery struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	LeadID     string
	Status     string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case "quote_search":
		queryBody = buildQuoteSearchQuery(eq)
	case "similar_quotes":
		queryBody = buildSimilarQuotesQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{eq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &eq.Pagination.From,
		Size:   &eq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildQuoteSearchQuery builds the list-view quote search dynamically
func buildQuoteSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Free-text client search
	if keywords, ok := eq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"company_name^3", "project_name^2", "quote_number"},
				"type":   "best_fields",
			},
		})
	}

	// Integrity status filter
	if status, ok := eq.Filters["integrityStatus"].(string); ok && status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"integrity_status": status},
		})
	} else if eq.Status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"integrity_status": eq.Status},
		})
	}

	if leadID, ok := eq.Filters["leadId"].(string); ok && leadID != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"lead_id": leadID},
		})
	}

	// Quote value range filter
	if valueRange, ok := eq.Filters["valueRange"].(map[string]interface{}); ok {
		minVal := toFloat(valueRange["min"])
		maxVal := toFloat(valueRange["max"])

		rangeClause := map[string]interface{}{}
		if minVal > 0 {
			rangeClause["gte"] = minVal
		}
		if maxVal > 0 {
			rangeClause["lte"] = maxVal
		}
		if len(rangeClause) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"total_price": rangeClause},
			})
		}
	}

	// Only latest versions unless the caller asks for all
	if includeAll, ok := eq.Filters["includeAllVersions"].(bool); !ok || !includeAll {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"is_latest": true},
		})
	}

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Sorting logic
	if sortBy, ok := eq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "total_price":
			query["sort"] = []map[string]interface{}{{"total_price": "desc"}}
		case "created_at":
			query["sort"] = []map[string]interface{}{{"created_at": "desc"}}
		case "company_name":
			query["sort"] = []map[string]interface{}{{"company_name": "asc"}}
		}
	}

	return query
}

// buildSimilarQuotesQuery finds quotes with a similar scope profile
func buildSimilarQuotesQuery(eq ElasticsearchQuery) map[string]interface{} {
	if eq.LeadID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"company_name", "project_name", "building_type"},
				"like": []map[string]interface{}{
					{"_index": eq.Index, "_id": eq.LeadID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
