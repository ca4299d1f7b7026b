// OpenAI chat-completions implementation of [Completer]
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/shared"
	"golang.org/x/oauth2"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-3.5-turbo"
	openAIMaxRetries   = 3
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIService sends chat completions to an OpenAI compatible endpoint.
//
// The API key is supplied as a bearer token by an [oauth2.Transport] wrapping a static token source.
type OpenAIService struct {
	api     *APIClient
	apiKey  string
	model   string
	backoff time.Duration
	logger  *log.Logger
}

// NewOpenAIService creates an OpenAI client. A nil base client uses [http.DefaultTransport].
func NewOpenAIService(cfg shared.OpenAIConfig, base *http.Client, logger *log.Logger) *OpenAIService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &OpenAIService{
		api:     NewAPIClient(cfg.BaseURL, bearerClient(cfg.APIKey, base)),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		backoff: time.Second,
		logger:  logger,
	}
}

func bearerClient(key string, base *http.Client) *http.Client {
	var transport http.RoundTripper
	var timeout time.Duration
	if base != nil {
		transport = base.Transport
		timeout = base.Timeout
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key, TokenType: "Bearer"})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: transport},
		Timeout:   timeout,
	}
}

func (s *OpenAIService) Name() string { return "openai" }

func (s *OpenAIService) Ready() bool { return s.apiKey != "" }

// Complete posts req to /chat/completions and returns the first choice's content.
//
// Rate limited responses (429) are retried with linear backoff.
func (s *OpenAIService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !s.Ready() {
		return "", fmt.Errorf("%w: openai api key", shared.ErrMissingCredential)
	}

	body := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var resp *APIResponse
	for attempt := 0; ; attempt++ {
		var err error
		resp, err = s.api.PostJSON(ctx, "/chat/completions", body)
		if err != nil {
			return "", err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= openAIMaxRetries {
			break
		}

		wait := s.backoff * time.Duration(attempt+1)
		s.logger.Warn("openai rate limited, retrying", "attempt", attempt+1, "wait", wait)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", shared.ErrProvider, ctx.Err())
		case <-time.After(wait):
		}
	}

	if !resp.OK() {
		var apiErr openAIError
		_ = resp.Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("%w: openai status %d: %s", shared.ErrProvider, resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("%w: openai status %d", shared.ErrProvider, resp.StatusCode)
	}

	var chat chatResponse
	if err := resp.Decode(&chat); err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response has no choices", shared.ErrMalformedResponse)
	}
	return chat.Choices[0].Message.Content, nil
}
