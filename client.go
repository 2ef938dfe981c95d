// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package converse

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/converse/chat"
	"github.com/jeranaias/converse/config"
	"github.com/jeranaias/converse/history"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultDirection seeds a conversation that was started without an
	// explicit direction message.
	DefaultDirection = "You are ChatGPT, an AI model developed by OpenAI. Answer as concisely as possible."

	// MaxResponseSize is the maximum allowed non-streamed response body.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "converse/0.3.0"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the completions endpoint. It is safe for concurrent
// use once constructed; the With* methods are not, so finish configuring
// before sharing.
type Client struct {
	apiKey string
	cfg    config.ModelConfiguration

	// httpClient serves non-streamed requests and carries the
	// configured timeout.
	httpClient *http.Client

	// streamClient serves streamed requests; it has no timeout, the
	// caller's context bounds the stream instead.
	streamClient *http.Client

	// limiter optionally paces outbound requests.
	limiter *rate.Limiter
}

// New creates a client with the default model configuration.
func New(apiKey string) (*Client, error) {
	return NewWithConfig(apiKey, config.Default())
}

// NewWithConfig creates a client with an explicit model configuration.
func NewWithConfig(apiKey string, cfg config.ModelConfiguration) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return newClient(apiKey, cfg, nil)
}

// NewWithProxy creates a client whose requests are routed through the
// given HTTP proxy.
func NewWithProxy(apiKey string, cfg config.ModelConfiguration, proxyURL string) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	proxy, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	return newClient(apiKey, cfg, http.ProxyURL(proxy))
}

func newClient(apiKey string, cfg config.ModelConfiguration, proxy func(*http.Request) (*url.URL, error)) (*Client, error) {
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	transport := &http.Transport{
		Proxy:               proxy,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		apiKey:       strings.TrimSpace(apiKey),
		cfg:          cfg,
		httpClient:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		streamClient: &http.Client{Transport: transport},
	}, nil
}

// WithHTTPClient replaces both underlying HTTP clients. Intended for
// tests and callers with bespoke transport needs.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// WithRateLimit paces outbound requests to at most rps requests per
// second with the given burst. Pacing happens before the request is
// sent; it is unrelated to reacting to server-side rate-limit errors,
// which this library leaves to the caller.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// Config returns a copy of the model configuration attached to every
// request.
func (c *Client) Config() config.ModelConfiguration {
	return c.cfg
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns a displayable form of the API key that exposes
// only its length and a hash fingerprint.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.apiKey), hex.EncodeToString(h[:4]))
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// NewConversation starts a conversation seeded with the default
// direction message.
func (c *Client) NewConversation() *Conversation {
	return c.NewConversationDirected(DefaultDirection)
}

// NewConversationDirected starts a conversation seeded with an explicit
// direction (system) message.
func (c *Client) NewConversationDirected(direction string) *Conversation {
	return &Conversation{
		client:  c,
		history: []chat.Message{chat.NewSystemMessage(direction)},
	}
}

// RestoreConversation restores a conversation persisted with
// Conversation.SaveHistoryJSON or SaveHistoryBinary, dispatching on the
// file extension. A missing or undecodable file is a ParsingError.
func (c *Client) RestoreConversation(path string) (*Conversation, error) {
	msgs, err := history.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Conversation{client: c, history: msgs}, nil
}

// RestoreConversationStore restores a conversation saved to a history
// store under the given ID.
func (c *Client) RestoreConversationStore(ctx context.Context, store *history.Store, id string) (*Conversation, error) {
	msgs, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Conversation{client: c, history: msgs, storeID: id}, nil
}

// =============================================================================
// SINGLE-SHOT SENDS
// =============================================================================

// SendMessage sends one user message without retaining any history.
func (c *Client) SendMessage(ctx context.Context, message string) (*chat.CompletionResponse, error) {
	return c.SendHistory(ctx, []chat.Message{chat.NewUserMessage(message)})
}

// SendMessageStreaming sends one user message and returns the live event
// stream. The stream is empty when the backend responds with an error
// envelope and a success status.
func (c *Client) SendMessageStreaming(ctx context.Context, message string) (*Stream, error) {
	return c.SendHistoryStreaming(ctx, []chat.Message{chat.NewUserMessage(message)})
}

// SendMessageFunctions sends one user message with function descriptors
// attached, permitting the model to request an invocation.
func (c *Client) SendMessageFunctions(ctx context.Context, message string, functions []chat.FunctionDescriptor) (*chat.CompletionResponse, error) {
	return c.SendHistoryFunctions(ctx, []chat.Message{chat.NewUserMessage(message)}, functions)
}

// =============================================================================
// EXPLICIT-HISTORY SENDS
// =============================================================================

// SendHistory sends a whole message history and returns the completion.
func (c *Client) SendHistory(ctx context.Context, msgs []chat.Message) (*chat.CompletionResponse, error) {
	return c.doSend(ctx, c.completionRequest(msgs, false, nil))
}

// SendHistoryStreaming sends a whole message history and returns the
// response as a live event stream.
func (c *Client) SendHistoryStreaming(ctx context.Context, msgs []chat.Message) (*Stream, error) {
	return c.openStream(ctx, c.completionRequest(msgs, true, nil))
}

// SendHistoryFunctions sends a whole message history with function
// descriptors attached.
func (c *Client) SendHistoryFunctions(ctx context.Context, msgs []chat.Message, functions []chat.FunctionDescriptor) (*chat.CompletionResponse, error) {
	return c.doSend(ctx, c.completionRequest(msgs, false, functions))
}

// completionRequest assembles the request body from a history snapshot
// and the shared model configuration.
func (c *Client) completionRequest(msgs []chat.Message, streaming bool, functions []chat.FunctionDescriptor) chat.CompletionRequest {
	return chat.CompletionRequest{
		Model:            c.cfg.Model,
		Messages:         msgs,
		Stream:           streaming,
		Temperature:      c.cfg.Temperature,
		TopP:             c.cfg.TopP,
		MaxTokens:        c.cfg.MaxTokens,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
		PresencePenalty:  c.cfg.PresencePenalty,
		ReplyCount:       c.cfg.ReplyCount,
		Functions:        functions,
	}
}

// =============================================================================
// TRANSPORT
// =============================================================================

// doSend performs one non-streamed request and decodes the result.
func (c *Client) doSend(ctx context.Context, reqBody chat.CompletionRequest) (*chat.CompletionResponse, error) {
	resp, err := c.post(ctx, c.httpClient, reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromStatus(resp.StatusCode, body)
	}

	// A success status can still carry an error envelope; the decoder
	// surfaces it as a BackendError.
	return chat.UnmarshalServerResponse(body)
}

// openStream performs one streamed request and hands the response body
// to the incremental decoder.
func (c *Client) openStream(ctx context.Context, reqBody chat.CompletionRequest) (*Stream, error) {
	resp, err := c.post(ctx, c.streamClient, reqBody, func(req *http.Request) {
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp)
		resp.Body.Close()
		return nil, errorFromStatus(resp.StatusCode, body)
	}

	return newStream(ctx, resp.Body), nil
}

// post marshals the request body and performs the HTTP exchange common
// to both send paths.
func (c *Client) post(ctx context.Context, hc *http.Client, reqBody chat.CompletionRequest, decorate ...func(*http.Request)) (*http.Response, error) {
	if !c.IsConfigured() {
		return nil, chat.ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &chat.TransportError{Err: err}
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for _, d := range decorate {
		d(req)
	}

	c.logRequest(req)
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &chat.TransportError{Err: err}
	}
	c.logResponse(resp, time.Since(start))
	return resp, nil
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &chat.TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, &chat.TransportError{
			Err: fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize),
		}
	}
	return body, nil
}

// errorFromStatus converts a non-200 response into a BackendError,
// keeping the server's message and classification when the body parses.
func errorFromStatus(statusCode int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &chat.BackendError{
			Message: envelope.Error.Message,
			Type:    envelope.Error.Type,
			Status:  statusCode,
		}
	}
	return &chat.BackendError{
		Message: strings.TrimSpace(string(body)),
		Type:    http.StatusText(statusCode),
		Status:  statusCode,
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// logRequest logs an API request without exposing sensitive data:
// never headers (auth) and never the body.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status code and duration, no response body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
