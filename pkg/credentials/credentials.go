// Package credentials holds the Pollinations API key credential type.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/new-xmon-df/pollinations-go/pkg/config"
)

// Name is the credential type name the node asks the host for.
const Name = "pollinationsApi"

// TestPath is requested once to validate a key.
const TestPath = "/image/models"

var ErrMissingAPIKey = errors.New("pollinations: API key is required")

// Credential stores the API key. It is never mutated by this module.
type Credential struct {
	APIKey string `json:"apiKey"`
}

// Store returns credentials by type name. The host owns storage and encryption.
type Store interface {
	Credential(ctx context.Context, name string) (*Credential, error)
}

// FromConfig builds a credential from the loaded configuration, which already
// includes the environment fallback.
func FromConfig(cfg *config.Config) *Credential {
	return &Credential{APIKey: strings.TrimSpace(cfg.Credentials.APIKey)}
}

// Validate checks the required field.
func (c *Credential) Validate() error {
	if c == nil || c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Authenticate injects the bearer header.
func (c *Credential) Authenticate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

// Test validates the key against the model listing endpoint.
func (c *Credential) Test(ctx context.Context, client *http.Client, apiBase string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(apiBase, "/")+TestPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.Authenticate(req)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("credential test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("credential test failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// StaticStore serves one credential for every lookup of Name.
type StaticStore struct {
	Cred *Credential
}

func (s StaticStore) Credential(_ context.Context, name string) (*Credential, error) {
	if name != Name {
		return nil, fmt.Errorf("unknown credential type: %s", name)
	}
	if err := s.Cred.Validate(); err != nil {
		return nil, err
	}
	return s.Cred, nil
}
