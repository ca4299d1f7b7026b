package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/pinmap/internal/shared"
	tu "github.com/desertthunder/pinmap/internal/testing"
)

func TestOpenAIService(t *testing.T) {
	ctx := context.Background()
	req := CompletionRequest{System: "sys", User: "user", MaxTokens: 500}

	t.Run("Sends Bearer Token And Prompt", func(t *testing.T) {
		chat := tu.NewChatServer(t, "Lakhta Center, Saint Petersburg, Russia")
		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "sk-test", BaseURL: chat.URL}, nil, nil)

		got, err := svc.Complete(ctx, req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "Lakhta Center, Saint Petersburg, Russia" {
			t.Errorf("unexpected content %q", got)
		}
		if auth := chat.LastAuthorization(); auth != "Bearer sk-test" {
			t.Errorf("expected bearer header, got %q", auth)
		}

		body := chat.LastBody()
		if body["model"] != openAIDefaultModel {
			t.Errorf("expected default model, got %v", body["model"])
		}
		if body["temperature"] != float64(0) {
			t.Errorf("expected temperature 0 to be sent, got %v", body["temperature"])
		}
		messages, _ := body["messages"].([]any)
		if len(messages) != 2 {
			t.Fatalf("expected system and user messages, got %v", body["messages"])
		}
	})

	t.Run("Missing Key", func(t *testing.T) {
		chat := tu.NewChatServer(t, "unused")
		svc := NewOpenAIService(shared.OpenAIConfig{BaseURL: chat.URL}, nil, nil)

		if svc.Ready() {
			t.Error("expected service without key to not be ready")
		}
		if _, err := svc.Complete(ctx, req); !errors.Is(err, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
		if chat.Hits() != 0 {
			t.Errorf("expected no requests, got %d", chat.Hits())
		}
	})

	t.Run("Retries Rate Limited Requests", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "ok"}}},
			})
		}))
		defer server.Close()

		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil, nil)
		svc.backoff = time.Millisecond

		got, err := svc.Complete(ctx, req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "ok" || calls.Load() != 3 {
			t.Errorf("expected ok after 3 calls, got %q after %d", got, calls.Load())
		}
	})

	t.Run("Gives Up After Max Retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil, nil)
		svc.backoff = time.Millisecond

		_, err := svc.Complete(ctx, req)
		if !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
		if calls.Load() != openAIMaxRetries+1 {
			t.Errorf("expected %d calls, got %d", openAIMaxRetries+1, calls.Load())
		}
	})

	t.Run("Error Body Is Reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		}))
		defer server.Close()

		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "bad", BaseURL: server.URL}, nil, nil)
		_, err := svc.Complete(ctx, req)
		if !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), "Incorrect API key") {
			t.Errorf("expected provider message in error, got %v", err)
		}
	})

	t.Run("No Choices Is Malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"x","choices":[]}`))
		}))
		defer server.Close()

		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil, nil)
		if _, err := svc.Complete(ctx, req); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Canceled During Backoff", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc := NewOpenAIService(shared.OpenAIConfig{APIKey: "k", BaseURL: server.URL}, nil, nil)
		svc.backoff = time.Hour

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		if _, err := svc.Complete(short, req); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})
}

func TestGeminiService(t *testing.T) {
	ctx := context.Background()
	req := CompletionRequest{System: "sys", User: "user", MaxTokens: 150}

	t.Run("Missing Key", func(t *testing.T) {
		svc := NewGeminiService(shared.GeminiConfig{}, "", nil, nil)

		if svc.Ready() {
			t.Error("expected service without key to not be ready")
		}
		if _, err := svc.Complete(ctx, req); !errors.Is(err, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
	})

	t.Run("Generates Content", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Steirereck, Vienna, Austria"}]}}]}`))
		}))
		defer server.Close()

		svc := NewGeminiService(shared.GeminiConfig{APIKey: "g-key"}, server.URL, server.Client(), nil)

		got, err := svc.Complete(ctx, req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "Steirereck, Vienna, Austria" {
			t.Errorf("unexpected content %q", got)
		}
		if !strings.Contains(path, geminiDefaultModel+":generateContent") {
			t.Errorf("expected generateContent path for default model, got %q", path)
		}
	})

	t.Run("No Candidates Is Malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		svc := NewGeminiService(shared.GeminiConfig{APIKey: "g-key"}, server.URL, server.Client(), nil)
		if _, err := svc.Complete(ctx, req); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
		}))
		defer server.Close()

		svc := NewGeminiService(shared.GeminiConfig{APIKey: "g-key"}, server.URL, server.Client(), nil)
		if _, err := svc.Complete(ctx, req); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})
}
