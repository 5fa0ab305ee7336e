// Package gemini wraps the Gemini generateContent REST API.
//
// The streaming variant relays text fragments to the caller as they arrive
// over SSE. The stream is finite and not restartable; a transport or HTTP
// error aborts the whole call with the upstream status and body in the
// error. Malformed individual stream lines are skipped.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zulandar/roundtable/internal/config"
)

// doneSentinel terminates an SSE stream.
const doneSentinel = "[DONE]"

// Generator is the generation gateway consumed by the turn orchestrator.
// StreamGenerate calls fn once per text fragment as it arrives; an error
// from fn cancels the stream and is returned.
type Generator interface {
	Generate(ctx context.Context, model, userContent, systemPrompt string) (string, error)
	StreamGenerate(ctx context.Context, model, userContent, systemPrompt string, fn func(fragment string) error) error
}

// Client calls the Gemini REST API. It implements Generator.
type Client struct {
	apiKey     string
	baseURL    string
	opts       config.GeminiConfig
	httpClient *http.Client
}

// NewClient builds a Client from configuration, reading the API key from
// the configured environment variable.
func NewClient(cfg config.GeminiConfig) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("gemini: %s is not set", cfg.APIKeyEnv)
	}
	return NewClientWithKey(key, cfg), nil
}

// NewClientWithKey builds a Client with an explicit API key, bypassing the
// environment lookup. Used by tests and embedding callers.
func NewClientWithKey(key string, cfg config.GeminiConfig) *Client {
	return &Client{
		apiKey:     key,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		opts:       cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// request/response wire types, minimal subset of the API surface.

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate produces a complete reply in one call. Not on the turn-taking
// hot path; used for completion-style helpers.
func (c *Client) Generate(ctx context.Context, model, userContent, systemPrompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	resp, err := c.post(ctx, url, model, userContent, systemPrompt)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// StreamGenerate produces a reply as a live fragment stream. Fragments are
// relayed through fn in arrival order; fn returning an error tears the
// stream down and surfaces that error to the caller.
func (c *Client) StreamGenerate(ctx context.Context, model, userContent, systemPrompt string, fn func(string) error) error {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, model, c.apiKey)

	resp, err := c.post(ctx, url, model, userContent, systemPrompt)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneSentinel {
			return nil
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Malformed stream lines are skipped, not fatal.
			continue
		}
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}
		text := chunk.Candidates[0].Content.Parts[0].Text
		if text == "" {
			continue
		}
		if err := fn(text); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("gemini: read stream: %w", err)
	}
	return nil
}

// post sends the generateContent request and checks the HTTP status.
func (c *Client) post(ctx context.Context, url, model, userContent, systemPrompt string) (*http.Response, error) {
	var contents []content
	if systemPrompt != "" {
		contents = append(contents, content{Role: "user", Parts: []part{{Text: systemPrompt}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: userContent}}})

	body, err := json.Marshal(generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     c.opts.Temperature,
			TopK:            c.opts.TopK,
			TopP:            c.opts.TopP,
			MaxOutputTokens: c.opts.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: call %s: %w", model, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini: %s returned %d: %s", model, resp.StatusCode, strings.TrimSpace(string(errBody)))
	}
	return resp, nil
}
