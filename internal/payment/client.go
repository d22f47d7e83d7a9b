package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tair/marketplace/internal/listing/domain"
)

// Client talks to the external payment-intent service. The core only
// ever sees the opaque client handle; completion arrives out-of-band as
// a payment.completed event.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateIntent registers a payment intent for a listing and returns the
// opaque client secret the buyer-side checkout needs.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, listingID string) (string, error) {
	payload := map[string]interface{}{
		"amount":   amountCents,
		"currency": "usd",
		"metadata": map[string]string{"listingId": listingID},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.NewDependencyError("payment", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return "", domain.NewDependencyError("payment", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", domain.NewDependencyError("payment", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", domain.NewDependencyError("payment", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var result struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", domain.NewDependencyError("payment", err)
	}
	if result.ClientSecret == "" {
		return "", domain.NewDependencyError("payment", fmt.Errorf("empty client secret"))
	}
	return result.ClientSecret, nil
}
