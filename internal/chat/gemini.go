package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/startera/internal/httpclient"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrEmptyReply is returned when the model answers without any text
var ErrEmptyReply = errors.New("model returned no text")

// GeminiResponder calls the generateContent REST endpoint
type GeminiResponder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient httpclient.HTTPClient
	logger     *slog.Logger
}

// NewGeminiResponder creates a responder for model
func NewGeminiResponder(apiKey, model string, client httpclient.HTTPClient, logger *slog.Logger) *GeminiResponder {
	return &GeminiResponder{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// WithBaseURL overrides the API root
func (g *GeminiResponder) WithBaseURL(baseURL string) *GeminiResponder {
	g.baseURL = strings.TrimSuffix(baseURL, "/")
	return g
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (g *GeminiResponder) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

// Reply sends one user message with an optional system prompt
func (g *GeminiResponder) Reply(ctx context.Context, systemPrompt, message string) (string, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: message}}}},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("model API error %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("model API error %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, candidate := range parsed.Candidates {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", ErrEmptyReply
	}

	g.logger.DebugContext(ctx, "model reply received", "model", g.model, "length", text.Len())
	return text.String(), nil
}
