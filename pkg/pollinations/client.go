// Package pollinations is a thin client for the Pollinations generation API.
package pollinations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
)

const (
	PathImage   = "/image"
	PathText    = "/text"
	PathAudio   = "/audio"
	PathBalance = "/account/balance"
)

// ModelKind selects one of the model listing endpoints.
type ModelKind string

const (
	ImageModels ModelKind = "image"
	TextModels  ModelKind = "text"
	AudioModels ModelKind = "audio"
)

// Client issues authenticated GET requests. Credentials are looked up on
// every call; nothing is cached between calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Creds      credentials.Store
}

// NewClient creates a new Client.
func NewClient(baseURL string, httpClient *http.Client, creds credentials.Store) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
		Creds:      creds,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Balance is the decoded /account/balance body. Raw keeps every field the
// API returned.
type Balance struct {
	Balance float64
	Raw     map[string]interface{}
}

// URL joins the base URL, path, an escaped final segment and the query.
func (c *Client) URL(path, segment string, query *Query) string {
	u := c.BaseURL + path
	if segment != "" {
		u += "/" + EncodeComponent(segment)
	}
	if query != nil && query.Len() > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get performs one GET against fullURL and reads the whole body. Non-2xx
// responses are returned as *StatusError.
func (c *Client) Get(ctx context.Context, fullURL string) (*Response, error) {
	cred, err := c.Creds.Credential(ctx, credentials.Name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	cred.Authenticate(req)

	log.WithField("url", fullURL).Debug("pollinations request")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        fullURL,
			Body:       string(body),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// GetJSON fetches path and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := c.Get(ctx, c.URL(path, "", nil))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Balance fetches the account balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var raw map[string]interface{}
	if err := c.GetJSON(ctx, PathBalance, &raw); err != nil {
		return nil, err
	}
	b := &Balance{Raw: raw}
	if v, ok := raw["balance"].(float64); ok {
		b.Balance = v
	}
	return b, nil
}

// Models returns the raw body of a model listing endpoint.
func (c *Client) Models(ctx context.Context, kind ModelKind) ([]byte, error) {
	resp, err := c.Get(ctx, c.URL("/"+string(kind)+"/models", "", nil))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
