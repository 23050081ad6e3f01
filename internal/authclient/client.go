// Package authclient is the account service's client for the auth service's
// credential API.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/model"
)

// Client talks to the auth service over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token, when set, is sent as a bearer on every request. The auth service
	// accepts it for internal lookups such as FindByUsername.
	Token string
}

// New creates a client whose calls are bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateCredential registers username with the given secret. The auth service
// hashes the secret; it never leaves this call in any other form.
// A taken username yields an error matching ErrConflict.
func (c *Client) CreateCredential(ctx context.Context, username, secret string) (model.Credential, error) {
	body, err := json.Marshal(model.CreateCredentialRequest{Username: username, Password: secret})
	if err != nil {
		return model.Credential{}, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/users", bytes.NewReader(body))
	if err != nil {
		return model.Credential{}, err
	}

	var out model.CredentialResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return model.Credential{}, err
	}

	return toCredential(out), nil
}

// FindByUsername fetches the public view of a credential.
// A missing username yields an error matching ErrNotFound.
func (c *Client) FindByUsername(ctx context.Context, username string) (model.Credential, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(username), nil)
	if err != nil {
		return model.Credential{}, err
	}

	var out model.CredentialResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return model.Credential{}, err
	}

	return toCredential(out), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set(logging.RequestIDHeader, id)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func toCredential(r model.CredentialResponse) model.Credential {
	return model.Credential{
		Username:  r.Username,
		LastLogin: r.LastLogin,
		CreatedAt: r.CreatedAt,
	}
}
