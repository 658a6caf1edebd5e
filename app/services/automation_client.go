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

// Automation gateway error constants
var (
	ErrGatewayNotConfigured = errors.New("automation gateway is not configured")
	ErrGatewayUnavailable   = errors.New("automation gateway is unreachable")
)

// AutomationClient talks to the n8n automation gateway that owns message
// generation, sending, and the knowledge/ICP workflows. The dashboard never
// advances a message status itself; it dispatches actions here and observes
// the resulting log writes.
type AutomationClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewAutomationClient creates a new automation gateway client
func NewAutomationClient(baseURL, apiKey string, timeout time.Duration) *AutomationClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AutomationClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *AutomationClient) Name() string { return "automation-gateway" }

// IsConfigured reports whether the gateway can be reached at all
func (c *AutomationClient) IsConfigured() bool {
	return c.BaseURL != ""
}

// SendMessageRequest triggers an immediate send of one generated message
type SendMessageRequest struct {
	UserID       string `json:"userId"`
	MessageLogID string `json:"messageLogId"`
	RecipientURL string `json:"recipientUrl"`
	MessageText  string `json:"messageText"`
}

// SendMessageResponse is the gateway's send result
type SendMessageResponse struct {
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

// SendMessage dispatches a send. Callers must re-fetch the prospect list on
// success rather than assume the resulting status.
func (c *AutomationClient) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrGatewayNotConfigured
	}

	var out SendMessageResponse
	if err := c.postJSON(ctx, "/webhook/send-message", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ActionRequest is the single action-dispatch envelope for knowledge/ICP
// operations: create, update, delete, restore, approve, list, get.
type ActionRequest struct {
	Action string         `json:"action"`
	UserID string         `json:"userId"`
	TeamID *string        `json:"teamId,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// ActionResponse is the gateway's action-dispatch result
type ActionResponse struct {
	Success bool            `json:"success"`
	Error   *string         `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DispatchAction sends one knowledge/ICP operation to the gateway
func (c *AutomationClient) DispatchAction(ctx context.Context, req ActionRequest) (*ActionResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrGatewayNotConfigured
	}

	var out ActionResponse
	if err := c.postJSON(ctx, "/webhook/knowledge-action", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// RegenerateRequest asks the workflow to retry a failed generation. The
// workflow creates a fresh log row starting back at analysis; this call is
// fire-and-forget from the dashboard's perspective.
type RegenerateRequest struct {
	UserID       string `json:"userId"`
	MessageLogID string `json:"messageLogId"`
}

// RequestRegeneration dispatches a regenerate request
func (c *AutomationClient) RequestRegeneration(ctx context.Context, req RegenerateRequest) error {
	if !c.IsConfigured() {
		return ErrGatewayNotConfigured
	}

	return c.postJSON(ctx, "/webhook/regenerate-message", req, nil)
}

// postJSON performs a JSON POST against the gateway
func (c *AutomationClient) postJSON(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway request %s failed with status %d: %s", path, resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
