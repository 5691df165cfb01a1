package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/startera/internal/apipaths"
	"github.com/startera/internal/domain"
	"github.com/startera/internal/httpclient"
)

// ServerError is a non-2xx answer from the auth API
type ServerError struct {
	Status int
	Detail string
	Code   string
}

func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// Is lets errors.Is match a ServerError against domain sentinels by code
func (e *ServerError) Is(target error) bool {
	domainErr, ok := target.(*domain.DomainError)
	if !ok {
		return false
	}
	if e.Code != "" && e.Code == domainErr.Code {
		return true
	}
	return domainErr.Code == domain.ErrServerRejected.Code
}

// Credentials is the login/register payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyPayload is the code confirmation payload
type VerifyPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// TokenResponse carries an issued session token
type TokenResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	Email   string `json:"email"`
}

// RegisterResponse is returned after registration
type RegisterResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	DebugCode string `json:"debug_code,omitempty"`
}

// ChatPayload is one chat message
type ChatPayload struct {
	Message      string `json:"message"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Language     string `json:"language,omitempty"`
}

// ChatResponse is the assistant reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatHistoryEntry is one stored chat turn
type ChatHistoryEntry struct {
	Text  string `json:"text"`
	IsBot bool   `json:"isBot"`
}

// PlanPayload describes the venture to plan
type PlanPayload struct {
	Idea       string `json:"idea"`
	Capital    string `json:"capital"`
	Skills     string `json:"skills"`
	Strategy   string `json:"strategy"`
	Management string `json:"management"`
	Language   string `json:"language,omitempty"`
}

// PlanResponse is the generated business plan
type PlanResponse struct {
	Plan string `json:"plan"`
}

// HealthResponse reports server status
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// Client talks JSON to the auth API
type Client struct {
	baseURL    string
	httpClient httpclient.HTTPClient
	logger     *slog.Logger
}

// NewClient creates a client rooted at baseURL (e.g. http://127.0.0.1:8000/api)
func NewClient(baseURL string, client httpclient.HTTPClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, apipaths.Login, "", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, creds Credentials) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, apipaths.Register, "", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify confirms a one-time code
func (c *Client) Verify(ctx context.Context, payload VerifyPayload) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, apipaths.Verify, "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one message to the assistant. A non-empty token files the turn under that user.
func (c *Client) Chat(ctx context.Context, token string, payload ChatPayload) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, apipaths.Chat, token, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatHistory lists stored chat turns; requires a session token
func (c *Client) ChatHistory(ctx context.Context, token string) ([]ChatHistoryEntry, error) {
	var out []ChatHistoryEntry
	if err := c.do(ctx, http.MethodGet, apipaths.ChatHistory, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Plan asks the server to write a business plan
func (c *Client) Plan(ctx context.Context, payload PlanPayload) (*PlanResponse, error) {
	var out PlanResponse
	if err := c.do(ctx, http.MethodPost, apipaths.GeneratePlan, "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks server liveness
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, apipaths.Health, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a request; transport failures become network errors, non-2xx become ServerError
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed before a response", "method", method, "url", endpoint, "error", err)
		return domain.WrapNetworkOperation(endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapNetworkOperation(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &ServerError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			serverErr.Detail = eb.Detail
			serverErr.Code = eb.Code
		}
		if serverErr.Detail == "" {
			serverErr.Detail = http.StatusText(resp.StatusCode)
		}
		c.logger.DebugContext(ctx, "server rejected request", "method", method, "url", endpoint, "status", resp.StatusCode, "code", serverErr.Code)
		return serverErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
