package symbols

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Client implements ports.SymbolResolver against the external symbol
// resolution HTTP API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.SymbolResolver = (*Client)(nil)

// NewClient builds a resolver client with the bounded resolution timeout.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// ResolveSymbol asks the service for a verified ticker. An empty symbol
// with a nil error means no match; callers decide via the unverified
// policy whether that is fatal for the item.
func (c *Client) ResolveSymbol(ctx context.Context, req ports.SymbolRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal symbol request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("symbol request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("symbol service returned %s", resp.Status)
	}

	var payload struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode symbol response: %w", err)
	}

	return strings.TrimSpace(payload.Symbol), nil
}
