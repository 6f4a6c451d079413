package checkmk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the CheckMK REST API. It is safe for concurrent use.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption customises client construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a client for the configured site. The configuration is
// not validated here; validation happens lazily so the MCP server can start
// (and list tools) without a reachable site.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	c := &Client{
		cfg:     cfg,
		baseURL: cfg.BaseURL(),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Result is a decoded API response.
type Result struct {
	StatusCode int
	ETag       string
	Raw        json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Result) Decode(v any) error {
	if len(r.Raw) == 0 {
		return fmt.Errorf("checkmk: empty response body")
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("checkmk: decode response: %w", err)
	}
	return nil
}

// Get issues a GET request against the API path, e.g.
// "domain-types/host_config/collections/all".
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Result, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Result, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

// Put issues a PUT request with a JSON body and optional extra headers
// (If-Match for optimistic locking).
func (c *Client) Put(ctx context.Context, path string, body any, headers map[string]string) (*Result, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, headers)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, map[string]string{"If-Match": "*"})
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string) (*Result, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("checkmk: encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("checkmk: build request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s %s", c.cfg.Username, c.cfg.Password))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkmk: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("checkmk: read response: %w", err)
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, data)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		ETag:       resp.Header.Get("ETag"),
		Raw:        data,
	}, nil
}

// DomainObject is the common shape of CheckMK REST objects: an id, a title
// and a bag of type-specific extensions.
type DomainObject struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	DomainType string         `json:"domainType"`
	Extensions map[string]any `json:"extensions"`
}

// Collection is the common shape of CheckMK collection responses.
type Collection struct {
	Value []DomainObject `json:"value"`
}

// StringExt returns a string-valued extension field, or fallback.
func (o DomainObject) StringExt(key, fallback string) string {
	if v, ok := o.Extensions[key].(string); ok {
		return v
	}
	return fallback
}

// BoolExt returns a bool-valued extension field.
func (o DomainObject) BoolExt(key string) bool {
	v, _ := o.Extensions[key].(bool)
	return v
}

// MapExt returns an object-valued extension field, never nil.
func (o DomainObject) MapExt(key string) map[string]any {
	if v, ok := o.Extensions[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// VersionInfo describes the CheckMK server version.
type VersionInfo struct {
	Site     string `json:"site"`
	Group    string `json:"group"`
	Versions struct {
		Checkmk string `json:"checkmk"`
		Edition string `json:"edition"`
	} `json:"versions"`
}

// Version fetches version and edition information from the site.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	res, err := c.Get(ctx, "version", nil)
	if err != nil {
		return nil, err
	}
	var info VersionInfo
	if err := res.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
