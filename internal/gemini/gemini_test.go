package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zulandar/roundtable/internal/config"
)

func testConfig(baseURL string) config.GeminiConfig {
	cfg := config.GeminiConfig{BaseURL: baseURL}
	// Fill generation defaults the way config.Parse would.
	cfg.Temperature = 0.7
	cfg.TopK = 40
	cfg.TopP = 0.95
	cfg.MaxOutputTokens = 1024
	return cfg
}

func sseChunk(text string) string {
	return fmt.Sprintf(`data: {"candidates":[{"content":{"parts":[{"text":%q}]}}]}`+"\n\n", text)
}

func TestStreamGenerate_RelaysFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("Hello"))
		fmt.Fprint(w, sseChunk(" world"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	var got []string
	err := c.StreamGenerate(context.Background(), "gemini-2.0-flash-exp", "hi", "system", func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, "") != "Hello world" {
		t.Errorf("fragments = %v, want Hello world", got)
	}
}

func TestStreamGenerate_SkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not valid json\n\n")
		fmt.Fprint(w, "garbage line without prefix\n")
		fmt.Fprint(w, sseChunk("ok"))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	var got []string
	err := c.StreamGenerate(context.Background(), "m", "hi", "", func(s string) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "ok" {
		t.Errorf("fragments = %v, want [ok]", got)
	}
}

func TestStreamGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	err := c.StreamGenerate(context.Background(), "m", "hi", "", func(string) error { return nil })
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should carry the upstream status", err.Error())
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error %q should carry the upstream body", err.Error())
	}
}

func TestStreamGenerate_CallbackErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("one"))
		fmt.Fprint(w, sseChunk("two"))
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	sentinel := errors.New("client gone")
	var calls int
	err := c.StreamGenerate(context.Background(), "m", "hi", "", func(string) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"complete reply"}]}}]}`)
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	got, err := c.Generate(context.Background(), "m", "hi", "system")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "complete reply" {
		t.Errorf("Generate = %q, want complete reply", got)
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	c := NewClientWithKey("test-key", testConfig(srv.URL))

	got, err := c.Generate(context.Background(), "m", "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("Generate = %q, want empty", got)
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("ROUNDTABLE_TEST_GEMINI_KEY", "")
	cfg := testConfig("https://example.com")
	cfg.APIKeyEnv = "ROUNDTABLE_TEST_GEMINI_KEY"
	if _, err := NewClient(cfg); err == nil {
		t.Fatal("expected error for unset API key")
	}
}
