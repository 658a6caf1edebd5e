package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Unipile client error constants
var (
	ErrUnipileNotConfigured = errors.New("unipile is not configured")
	ErrUnipileConflict      = errors.New("account already linked elsewhere")
)

// UnipileClient talks to the Unipile hosted-auth API for LinkedIn account
// linking. All methods return ErrUnipileNotConfigured when no base URL or
// API key is set, letting flows degrade instead of panicking.
type UnipileClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewUnipileClient creates a new Unipile API client
func NewUnipileClient(baseURL, apiKey string, timeout time.Duration) *UnipileClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &UnipileClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *UnipileClient) Name() string { return "unipile" }

// IsConfigured reports whether the client can reach the provider
func (c *UnipileClient) IsConfigured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// HostedAuthRequest is the hosted-auth link creation payload
type HostedAuthRequest struct {
	Type       string   `json:"type"` // "create" or "reconnect"
	Providers  []string `json:"providers"`
	Expiry     string   `json:"expiresOn"`
	SuccessURL string   `json:"success_redirect_url"`
	FailureURL string   `json:"failure_redirect_url"`
	NotifyURL  string   `json:"notify_url"`
	Name       string   `json:"name"`
}

// HostedAuthResponse is the hosted-auth link creation result
type HostedAuthResponse struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	ExpiresOn string `json:"expiresOn"`
}

// AccountStatus is the provider-side view of one linked account
type AccountStatus struct {
	Connected bool            `json:"connected"`
	Account   *UnipileAccount `json:"account,omitempty"`
}

// UnipileAccount carries the provider account attributes
type UnipileAccount struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateHostedAuthLink requests a hosted-auth URL the dashboard opens in a
// popup. The notify URL receives the provider callback once linking completes.
func (c *UnipileClient) CreateHostedAuthLink(ctx context.Context, req HostedAuthRequest) (*HostedAuthResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrUnipileNotConfigured
	}

	var out HostedAuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/hosted/accounts/link", req, &out); err != nil {
		return nil, err
	}

	if out.URL == "" {
		return nil, fmt.Errorf("unipile returned empty hosted auth url")
	}

	return &out, nil
}

// GetAccountStatus checks whether the given provider account is connected
func (c *UnipileClient) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	if !c.IsConfigured() {
		return nil, ErrUnipileNotConfigured
	}

	var account UnipileAccount
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/accounts/"+accountID, nil, &account)
	if err != nil {
		var httpErr *unipileHTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return &AccountStatus{Connected: false}, nil
		}
		return nil, err
	}

	connected := strings.EqualFold(account.Status, "OK") || strings.EqualFold(account.Status, "CONNECTED")
	return &AccountStatus{Connected: connected, Account: &account}, nil
}

// DeleteAccount removes the provider-side account record. Callers treat a
// failure here as a warning; the local disconnect proceeds regardless.
func (c *UnipileClient) DeleteAccount(ctx context.Context, accountID string) error {
	if !c.IsConfigured() {
		return ErrUnipileNotConfigured
	}

	return c.doJSON(ctx, http.MethodDelete, "/api/v1/accounts/"+accountID, nil, nil)
}

// unipileHTTPError carries a non-2xx provider response
type unipileHTTPError struct {
	StatusCode int
	Body       string
}

func (e *unipileHTTPError) Error() string {
	return fmt.Sprintf("unipile request failed with status %d: %s", e.StatusCode, e.Body)
}

// doJSON performs a JSON request against the Unipile API
func (c *UnipileClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return ErrUnipileConflict
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &unipileHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
