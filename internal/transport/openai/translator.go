package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/metrics"
	"github.com/roxby/tubesearch/internal/translate"
)

const systemPrompt = "You translate search queries for a video catalogue. " +
	"Reply with the translation only, without quotes or explanations. " +
	"Keep names and numbers unchanged."

// Translator translates search queries with an OpenAI-compatible chat completion API.
type Translator struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Config holds the translation provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// NewTranslator creates an OpenAI-compatible translator.
func NewTranslator(cfg *Config) *Translator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Translator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Translate implements translate.Translator.
func (t *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", translate.ErrEmptyText
	}

	req := openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: t.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Translate to %s: %s", target, text)},
		},
	}

	start := time.Now()

	resp, err := t.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.TranslateRequestsTotal.WithLabelValues(t.model, "error").Inc()
		t.logger.Debug("Translation failed", zap.String("target", target), zap.Error(err))
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.TranslateRequestsTotal.WithLabelValues(t.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", translate.ErrUnavailable)
	}

	out := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'`)
	if out == "" {
		metrics.TranslateRequestsTotal.WithLabelValues(t.model, "error").Inc()
		return "", fmt.Errorf("empty translation: %w", translate.ErrUnavailable)
	}

	metrics.TranslateRequestsTotal.WithLabelValues(t.model, "success").Inc()
	metrics.TranslateRequestDuration.WithLabelValues(t.model).Observe(duration.Seconds())

	return out, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (t *Translator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// 429 maps to translate.ErrRateLimited, everything else to translate.ErrUnavailable.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap := sentinelFor(reqErr.HTTPStatusCode)
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("translation API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("translation API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("translation API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, sentinelFor(apiErr.HTTPStatusCode))
	}

	return fmt.Errorf("translation request failed: %v: %w", err, translate.ErrUnavailable)
}

func sentinelFor(status int) error {
	if status == http.StatusTooManyRequests {
		return translate.ErrRateLimited
	}
	return translate.ErrUnavailable
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
