package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 2 << 10
)

// GeminiClient calls the generateContent REST endpoint
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGeminiClient(cfg *config.LLMConfig, logger *slog.Logger) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		return nil, errors.New("gemini: model required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Transport: tr, Timeout: timeout},
		logger:     logger.With(slog.String("component", "gemini")),
	}, nil
}

// NewGeminiClientWithHTTPClient swaps the transport, used by tests
func NewGeminiClientWithHTTPClient(cfg *config.LLMConfig, httpClient *http.Client, logger *slog.Logger) (*GeminiClient, error) {
	c, err := NewGeminiClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

func (c *GeminiClient) Model() string {
	return c.model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generate sends one prompt and returns the concatenated text of the first candidate
func (c *GeminiClient) Generate(ctx context.Context, prompt string, params analyzer.GenerationParams) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxOutputTokens,
			TopP:            params.TopP,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.LLMRequestFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("gemini: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logger.Warn("generateContent failed",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", apperrors.LLMRateLimited(statusErr)
		}
		return "", apperrors.LLMRequestFailed(statusErr)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.LLMInvalidResponse("gemini response is not valid JSON", err)
	}

	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", apperrors.LLMInvalidResponse("prompt blocked: "+out.PromptFeedback.BlockReason, nil)
	}
	if len(out.Candidates) == 0 {
		return "", apperrors.LLMInvalidResponse("gemini returned no candidates", nil)
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", apperrors.LLMInvalidResponse("gemini returned empty text (finish reason "+out.Candidates[0].FinishReason+")", nil)
	}

	c.logger.Debug("generateContent ok",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("response_length", len(text)))

	return text, nil
}
