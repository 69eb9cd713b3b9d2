package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	commonhttp "cpq-workers/internal/common/http"
)

type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *commonhttp.Client
}

// Deal mirrors the CRM fields the pricing workers push back onto a sales
// record after a quote is calculated or versioned.
type Deal struct {
	ID              string  `json:"id,omitempty"`
	DealName        string  `json:"Deal_Name,omitempty"`
	Stage           string  `json:"Stage,omitempty"`
	Amount          float64 `json:"Amount,omitempty"`
	QuoteNumber     string  `json:"Quote_Number,omitempty"`
	QuoteVersion    int     `json:"Quote_Version,omitempty"`
	IntegrityStatus string  `json:"Quote_Integrity_Status,omitempty"`
	QuoteURL        string  `json:"Quote_URL,omitempty"`
}

type mutationResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(apiKey, oauthToken string) *CRMClient {
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    "https://www.zohoapis.com/crm/v3",
		httpClient: commonhttp.NewClient(30 * time.Second),
	}
}

func (c *CRMClient) GetDeal(ctx context.Context, dealID string) (*Deal, error) {
	url := fmt.Sprintf("%s/Deals/%s", c.baseURL, dealID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get deal (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []Deal `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("deal not found")
	}

	return &result.Data[0], nil
}

// UpdateDeal writes the quote snapshot fields back to the CRM record. Zoho
// treats a PUT on /Deals/{id} as a partial update, so only the fields set on
// the Deal are touched.
func (c *CRMClient) UpdateDeal(ctx context.Context, dealID string, deal *Deal) error {
	url := fmt.Sprintf("%s/Deals/%s", c.baseURL, dealID)

	payload := map[string]interface{}{
		"data": []Deal{*deal},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal deal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to update deal (status %d): %s", resp.StatusCode, string(body))
	}

	var updateResp mutationResponse
	if err := json.Unmarshal(body, &updateResp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(updateResp.Data) == 0 {
		return fmt.Errorf("no data in response")
	}

	if updateResp.Data[0].Status != "success" {
		return fmt.Errorf("deal update failed: %s", updateResp.Data[0].Message)
	}

	return nil
}

// SearchDeals finds deals by quote number, used to reconcile quote versions
// saved before the CRM record existed.
func (c *CRMClient) SearchDeals(ctx context.Context, quoteNumber string) ([]Deal, error) {
	url := fmt.Sprintf("%s/Deals/search?criteria=(Quote_Number:equals:%s)", c.baseURL, quoteNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to search deals (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []Deal `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Data, nil
}
