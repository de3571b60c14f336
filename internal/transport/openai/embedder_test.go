package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docq-dev/docq/internal/domain"
)

// fakeProvider serves a minimal OpenAI-compatible API for tests.
func fakeProvider(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedder_Embed(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
			},
			"usage": map[string]int{"prompt_tokens": 3, "total_tokens": 3},
		})
	})

	e := NewEmbedder(EmbedderConfig{APIKey: "test", BaseURL: srv.URL, Model: "text-embedding-3-small"})
	res, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 2 || res.Embedding[0] != 0.1 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.TotalTokens != 3 {
		t.Errorf("total tokens = %d", res.TotalTokens)
	}
}

func TestEmbedder_EmbedBatch_KeepsProviderIndexes(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		// reply out of input order on purpose
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0.2}},
				{"object": "embedding", "index": 0, "embedding": []float32{0.1}},
			},
			"usage": map[string]int{"prompt_tokens": 6, "total_tokens": 6},
		})
	})

	e := NewEmbedder(EmbedderConfig{APIKey: "test", BaseURL: srv.URL, Model: "text-embedding-3-small"})
	items, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	if items[0].Index != 1 || items[1].Index != 0 {
		t.Errorf("provider indexes must be preserved: %+v", items)
	}
}

func TestEmbedder_EmbedBatch_Empty(t *testing.T) {
	e := NewEmbedder(EmbedderConfig{APIKey: "test", Model: "m"})
	items, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if items != nil {
		t.Errorf("want nil, got %+v", items)
	}
}

func TestEmbedder_APIErrorWrapsSentinel(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":"rate limited"}`))
	})

	e := NewEmbedder(EmbedderConfig{APIKey: "test", BaseURL: srv.URL, Model: "m"})
	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("want ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbedder_TruncatesLongInput(t *testing.T) {
	var gotLen int
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) == 1 {
			gotLen = len([]rune(req.Input[0]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1}},
			},
		})
	})

	e := NewEmbedder(EmbedderConfig{APIKey: "test", BaseURL: srv.URL, Model: "m", MaxInputChars: 10})
	long := make([]rune, 50)
	for i := range long {
		long[i] = 'é'
	}
	if _, err := e.Embed(context.Background(), string(long)); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if gotLen != 10 {
		t.Errorf("provider received %d runes, want 10", gotLen)
	}
}

func TestCompleter_Complete(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Messages []map[string]string `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0]["role"] != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14},
		})
	})

	c := NewCompleter(CompleterConfig{APIKey: "test", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	got, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "instructions"},
		{Role: domain.RoleUser, Content: "question"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Errorf("got %q", got)
	}
}

func TestCompleter_APIErrorWrapsSentinel(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})

	c := NewCompleter(CompleterConfig{APIKey: "test", BaseURL: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}})
	if !errors.Is(err, domain.ErrCompletionUnavailable) {
		t.Fatalf("want ErrCompletionUnavailable, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("ééééé", 3); got != "ééé" {
		t.Errorf("got %q", got)
	}
}
