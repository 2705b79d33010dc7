package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	autorag "github.com/nehasharma2210/AutoRag"
)

const (
	// DefaultBaseURL points at a local retrieval engine.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultQueryTimeout bounds a retrieval round trip. Long documents can
	// keep the engine busy for minutes.
	DefaultQueryTimeout = time.Millisecond * 120000

	healthTimeout = time.Second * 10
)

// QueryRequest is the payload forwarded to the retrieval engine. Optional
// tuning knobs are pointers so absent values stay absent upstream.
type QueryRequest struct {
	Query      string   `json:"query"`
	Threshold  *float64 `json:"threshold,omitempty"`
	MaxResults *int     `json:"max_results,omitempty"`
	UseHealing *bool    `json:"use_healing,omitempty"`
}

// Proxy forwards query and health calls to the retrieval engine and hands
// the upstream JSON back untouched.
type Proxy struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  autorag.Logger
}

type ProxyOption func(*Proxy)

func WithQueryTimeout(timeout time.Duration) ProxyOption {
	return func(p *Proxy) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func WithHTTPClient(client *http.Client) ProxyOption {
	return func(p *Proxy) {
		if client != nil {
			p.client = client
		}
	}
}

func WithProxyLogger(logger autorag.Logger) ProxyOption {
	return func(p *Proxy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProxy(baseURL string, opts ...ProxyOption) *Proxy {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	p := &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultQueryTimeout,
		client:  &http.Client{},
		logger:  autorag.NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// BaseURL returns the upstream address, used in error payloads so operators
// can tell which engine misbehaved.
func (p *Proxy) BaseURL() string {
	return p.baseURL
}

// Query posts the request to the engine's /query endpoint.
func (p *Proxy) Query(ctx context.Context, req QueryRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, p.upstreamError("query", 0, nil, fmt.Errorf("encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, p.upstreamError("query", 0, nil, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return p.do("query", httpReq)
}

// Health checks the engine's /health endpoint.
func (p *Proxy) Health(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return nil, p.upstreamError("health", 0, nil, err)
	}

	return p.do("health", httpReq)
}

func (p *Proxy) do(operation string, req *http.Request) (json.RawMessage, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("compute upstream request failed", "operation", operation, "error", err)
		return nil, p.upstreamError(operation, 0, nil, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, p.upstreamError(operation, resp.StatusCode, nil, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.upstreamError(operation, resp.StatusCode, payload, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if !json.Valid(payload) {
		return nil, p.upstreamError(operation, resp.StatusCode, payload, fmt.Errorf("non JSON response"))
	}

	return json.RawMessage(payload), nil
}

func (p *Proxy) upstreamError(operation string, status int, body []byte, err error) *UpstreamError {
	return &UpstreamError{
		BaseURL:   p.baseURL,
		Operation: operation,
		Status:    status,
		Body:      body,
		Err:       err,
	}
}
