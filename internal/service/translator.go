package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/n-translator/api/internal/prompts"
)

// Translator translates a map of named text fields from a source language to
// a target language, preserving the keys.
type Translator interface {
	Translate(ctx context.Context, content map[string]string, sourceLanguage, targetLanguage string) (map[string]string, error)
}

// ProviderError reports a failed interaction with the translation provider:
// a non-2xx response, a response missing the expected completion field, or a
// completion whose text is not valid JSON.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("translation provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("translation provider error: %s", e.Message)
}

// TranslatorConfig holds configuration for the translation provider client.
type TranslatorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// TranslatorService calls an OpenAI-compatible chat completion endpoint to
// translate structured content. The service is stateless; retry on failure
// is the job queue's responsibility.
type TranslatorService struct {
	client      *resty.Client
	endpoint    string
	model       string
	maxTokens   int
	temperature float32
}

// NewTranslatorService creates a new translation provider client.
func NewTranslatorService(cfg *TranslatorConfig) *TranslatorService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &TranslatorService{
		client:      client,
		endpoint:    baseURL + "/chat/completions",
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Translate sends the serialized content to the provider and decodes the
// translated map out of the completion. The provider returns the translation
// as a JSON string inside the completion text, so decoding happens in two
// layers: the transport envelope first, then the completion text as its own
// JSON document.
func (s *TranslatorService) Translate(ctx context.Context, content map[string]string, sourceLanguage, targetLanguage string) (map[string]string, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content: %w", err)
	}

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: prompts.TranslatorSystem(sourceLanguage, languageName(targetLanguage)),
			},
			{
				Role:    "user",
				Content: string(payload),
			},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call translation provider: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		message := string(httpResp.Body())
		var errResp chatResponse
		if jsonErr := json.Unmarshal(httpResp.Body(), &errResp); jsonErr == nil && errResp.Error != nil {
			message = errResp.Error.Message
		}
		return nil, &ProviderError{StatusCode: httpResp.StatusCode(), Message: message}
	}

	if resp.Error != nil {
		return nil, &ProviderError{Message: resp.Error.Message}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &ProviderError{Message: "invalid response format from provider"}
	}

	var translated map[string]string
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &translated); err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("invalid JSON in provider response: %v", err)}
	}
	if translated == nil {
		// json.Unmarshal accepts the literal "null" without error.
		return nil, &ProviderError{Message: "empty translation payload in provider response"}
	}

	return translated, nil
}

// languageName maps a target language code to the human-readable name used
// in the prompt. Unknown codes default to Spanish.
func languageName(code string) string {
	switch code {
	case "es":
		return "Spanish"
	case "fr":
		return "French"
	case "de":
		return "German"
	case "it":
		return "Italian"
	case "pt":
		return "Portuguese"
	default:
		return "Spanish"
	}
}
