// Gemini implementation of [Completer]
package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pinmap/internal/shared"
	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiService generates completions with the Gemini API through the genai SDK.
//
// The SDK client is created on first use since it needs a context.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiService creates a Gemini completer. baseURL overrides the API endpoint and may be empty.
func NewGeminiService(cfg shared.GeminiConfig, baseURL string, httpClient *http.Client, logger *log.Logger) *GeminiService {
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &GeminiService{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *GeminiService) Name() string { return "gemini" }

func (s *GeminiService) Ready() bool { return s.apiKey != "" }

func (s *GeminiService) sdk(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      s.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  s.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %v", shared.ErrProvider, err)
	}
	s.client = client
	return client, nil
}

// Complete generates content for req.User with req.System as the system instruction.
func (s *GeminiService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !s.Ready() {
		return "", fmt.Errorf("%w: gemini api key", shared.ErrMissingCredential)
	}

	client, err := s.sdk(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(req.User), config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", shared.ErrProvider, err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: gemini response has no candidates", shared.ErrMalformedResponse)
	}
	return resp.Text(), nil
}
