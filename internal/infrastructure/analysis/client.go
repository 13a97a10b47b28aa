package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/VictorSaf/ainvestorhood5/internal/ports"
)

const defaultTimeout = 25 * time.Second

// ErrMalformedResponse marks a reachable analyzer that returned an unusable
// payload. Recoverable; callers fall back to heuristics.
var ErrMalformedResponse = errors.New("malformed analysis response")

// Client implements ports.Analyzer against the remote analysis HTTP API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Analyzer = (*Client)(nil)

// NewClient builds a client with the bounded analysis timeout.
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

type analysisPayload struct {
	Success  bool `json:"success"`
	Analysis struct {
		InstrumentType  string          `json:"instrument_type"`
		InstrumentName  string          `json:"instrument_name"`
		Recommendation  string          `json:"recommendation"`
		ConfidenceScore json.RawMessage `json:"confidence_score"`
		Summary         string          `json:"summary"`
		Analysis        string          `json:"analysis"`
	} `json:"analysis"`
}

// Analyze posts the item to the analyzer and decodes its verdict. Transport
// failures, non-2xx statuses, unparseable bodies and success=false all
// surface as errors.
func (c *Client) Analyze(ctx context.Context, req ports.AnalysisRequest) (ports.Analysis, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ports.Analysis{}, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.Analysis{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ports.Analysis{}, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.Analysis{}, fmt.Errorf("analysis service returned %s", resp.Status)
	}

	var payload analysisPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ports.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !payload.Success {
		return ports.Analysis{}, fmt.Errorf("%w: success=false", ErrMalformedResponse)
	}

	summary := payload.Analysis.Summary
	if summary == "" {
		summary = payload.Analysis.Analysis
	}

	return ports.Analysis{
		InstrumentType:  payload.Analysis.InstrumentType,
		InstrumentName:  payload.Analysis.InstrumentName,
		Recommendation:  payload.Analysis.Recommendation,
		ConfidenceScore: coerceConfidence(payload.Analysis.ConfidenceScore),
		Summary:         summary,
	}, nil
}

// coerceConfidence accepts numbers, numeric strings and garbage alike;
// anything unusable defaults to 50.
func coerceConfidence(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 50
	}
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return int(number)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return n
		}
	}
	return 50
}
