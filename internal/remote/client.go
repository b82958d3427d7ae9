// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote provides an HTTP client for a hosted chat message store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/webchat-tui/internal/model"
)

// Configuration constants for the chat API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024
)

// Error variables for common API failures.
var (
	// ErrNotConfigured indicates the base URL is not set.
	ErrNotConfigured = errors.New("chat API URL not configured")

	// ErrAuthFailed indicates the token was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotFound indicates the conversation or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")
)

// APIError represents an error response from the chat API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chat API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("chat API error (HTTP %d): %s", e.Status, e.Message)
}

// apiErrorResponse is the error body shape returned by the API.
type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// appendBody is the POST body for a new message.
type appendBody struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// profileBody is a profile record.
type profileBody struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat API. It implements the session package's
// MessageStore, ProfileResolver and ConversationLister interfaces. Every
// call is made once; failures are reported to the caller, which decides
// whether to retry.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string

	// RequestsPerSecond and Burst shape outgoing traffic. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int

	Timeout time.Duration
	Logger  *zap.Logger

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient creates a chat API client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid chat API URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.Named("remote"),
	}, nil
}

// =============================================================================
// API
// =============================================================================

// ListConversations returns the conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	if err := c.get(ctx, "/conversations", &out); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return out, nil
}

// FetchMessages returns the messages of a conversation, oldest first.
func (c *Client) FetchMessages(ctx context.Context, conversationID string) ([]model.RemoteMessage, error) {
	var out []model.RemoteMessage
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	for i := range out {
		if out[i].ConversationID == "" {
			out[i].ConversationID = conversationID
		}
	}
	return out, nil
}

// AppendMessage posts a message. A request that may have reached the server
// is reported as failed rather than sent twice.
func (c *Client) AppendMessage(ctx context.Context, req model.AppendRequest) (model.AppendResult, error) {
	body, err := json.Marshal(appendBody{UserID: req.AuthorID, Content: req.Content, ReplyTo: req.ReplyToID})
	if err != nil {
		return model.AppendResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := "/conversations/" + url.PathEscape(req.ConversationID) + "/messages"
	var res model.AppendResult
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return model.AppendResult{}, fmt.Errorf("appending message: %w", err)
	}
	if res.ID == "" {
		return model.AppendResult{}, errors.New("appending message: response has no id")
	}
	return res, nil
}

// DisplayName returns the username of a profile.
func (c *Client) DisplayName(ctx context.Context, authorID string) (string, error) {
	var p profileBody
	if err := c.get(ctx, "/profiles/"+url.PathEscape(authorID), &p); err != nil {
		return "", fmt.Errorf("loading profile: %w", err)
	}
	return p.Username, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do performs a single request and decodes a JSON answer into out.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return err
	}
	c.logger.Debug("request complete",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleErrorResponse(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Status: statusCode, Message: strings.TrimSpace(string(body))}
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuthFailed, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
	default:
		return apiErr
	}
}
