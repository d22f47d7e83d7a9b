package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tair/marketplace/internal/listing/domain"
)

// DescriptionRequest carries the listing details the generator works from
type DescriptionRequest struct {
	Title      string `json:"title"`
	Category   string `json:"category"`
	Condition  string `json:"condition"`
	PriceCents int64  `json:"price"`
}

// Client talks to the external text-generation service. Its output is
// purely advisory: the caller inserts it as a draft field value and the
// core never validates or trusts it.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateDescription drafts a listing description
func (c *Client) GenerateDescription(ctx context.Context, req DescriptionRequest) (string, error) {
	var resp struct {
		Description string `json:"description"`
	}
	if err := c.post(ctx, "/v1/descriptions", req, &resp); err != nil {
		return "", domain.NewDependencyError("ai", err)
	}
	return resp.Description, nil
}

// ImproveDescription rewrites an existing draft with extra context
func (c *Client) ImproveDescription(ctx context.Context, text, extra string) (string, error) {
	payload := map[string]string{
		"text":    text,
		"context": extra,
	}
	var resp struct {
		Description string `json:"description"`
	}
	if err := c.post(ctx, "/v1/descriptions/improve", payload, &resp); err != nil {
		return "", domain.NewDependencyError("ai", err)
	}
	return resp.Description, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
