// Package emoai is the Go client core for the EmoAI backend: a session
// manager that tracks the current authentication state and a journal access
// layer that performs scoped create/list operations bound to that session.
// It is a library consumed by a presentation layer; it does no logging and
// no retries of its own.
package emoai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	contentTypeJSON = "application/json"
	clientUserAgent = "emoai-go/1.0.0"
)

// Client is a low-level HTTP client for the EmoAI backend API. It is shared
// by the SessionManager and JournalAccess and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (15s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an HTTP request. Non-2xx responses come back as
// *statusError with the backend's message; transport and decoding failures
// come back as *PersistenceError.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result interface{}) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return &PersistenceError{Op: op, Message: "failed to encode request body", Err: err}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &PersistenceError{Op: op, Message: "failed to create request", Err: err}
	}

	req.Header.Set("User-Agent", clientUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &PersistenceError{Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &PersistenceError{Op: op, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		message := http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			message = envelope.Message
		}
		return &statusError{StatusCode: resp.StatusCode, Message: message}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &PersistenceError{Op: op, Message: "malformed response", Err: err}
		}
	}

	return nil
}

func (c *Client) get(ctx context.Context, path, token string, result interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, token, nil, result)
}

func (c *Client) post(ctx context.Context, path, token string, body, result interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, token, body, result)
}
