// Package openai implements llm.ChatProvider and llm.Embedder against any
// OpenAI-compatible HTTP API.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cyberguard/internal/llm"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewFromEnv builds a client from CYBERGUARD_OPENAI_BASE_URL and
// CYBERGUARD_OPENAI_API_KEY (OPENAI_API_KEY accepted as fallback). Returns
// nil when no API key is configured: callers treat a nil client as the
// degraded, fallback-only mode.
func NewFromEnv() *Client {
	key := os.Getenv("CYBERGUARD_OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil
	}
	base := os.Getenv("CYBERGUARD_OPENAI_BASE_URL")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return New(base, key, 30*time.Second)
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatStream struct {
	body io.ReadCloser
	r    *bufio.Reader
}

func (s *chatStream) Recv() (string, bool, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", true, nil
		}
		return "", true, err
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", false, nil
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "[DONE]" {
		return "", true, nil
	}
	var evt struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return "", false, nil
	}
	if len(evt.Choices) > 0 {
		return evt.Choices[0].Delta.Content, false, nil
	}
	return "", false, nil
}

func (s *chatStream) Close() error { return s.body.Close() }

// Chat implements llm.ChatProvider. A failed call is not retried; the caller
// decides how to degrade.
func (c *Client) Chat(ctx context.Context, model string, messages []llm.Message, stream bool, temperature float32, maxTokens int) (llm.ChatStream, error) {
	if model == "" {
		model = os.Getenv("CYBERGUARD_CHAT_MODEL")
		if model == "" {
			model = "gpt-3.5-turbo"
		}
	}
	reqBody := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
		"stream":      stream,
	}
	if maxTokens > 0 {
		reqBody["max_tokens"] = maxTokens
	}
	resp, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat http %d: %s", resp.StatusCode, string(data))
	}
	if stream {
		return &chatStream{body: resp.Body, r: bufio.NewReader(resp.Body)}, nil
	}
	defer resp.Body.Close()
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	content := ""
	if len(out.Choices) > 0 {
		content = out.Choices[0].Message.Content
	}
	return llm.TextStream(content), nil
}

// Embeddings implements llm.Embedder.
func (c *Client) Embeddings(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if model == "" {
		model = os.Getenv("CYBERGUARD_EMBEDDING_MODEL")
		if model == "" {
			model = "text-embedding-3-small"
		}
	}
	resp, err := c.post(ctx, "/embeddings", map[string]any{"model": model, "input": inputs})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings http %d: %s", resp.StatusCode, string(data))
	}
	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	res := make([][]float32, 0, len(out.Data))
	for _, d := range out.Data {
		res = append(res, d.Embedding)
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any) (*http.Response, error) {
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.http.Do(req)
}
