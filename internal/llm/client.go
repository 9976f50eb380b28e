// Package llm is a minimal streaming client for Groq's OpenAI-compatible
// chat completions API.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"

	// Fixed sampling parameters; each chat request is single-turn, so
	// there is nothing to tune per conversation.
	temperature = 0.6
	maxTokens   = 900
)

// Client issues streaming chat completion requests.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a Groq client. The timeout bounds the whole request
// including reading the streamed body, so a hung provider cannot stall a
// chat request indefinitely.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamChat opens a streaming completion for the given system prompt.
// No conversation history is forwarded; the provider sees only the
// freshly built prompt. A single attempt is made, no retries.
func (c *Client) StreamChat(ctx context.Context, systemPrompt string) (*Stream, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []message{{Role: "system", Content: systemPrompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("llm: non-success status=%d body=%s",
			resp.StatusCode, truncate(string(body), 400))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{body: resp.Body, scanner: scanner}, nil
}

// Stream is a finite, non-restartable sequence of text deltas pulled from
// one provider response.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Recv returns the next non-empty text delta. It skips metadata-only
// chunks. The sequence ends with io.EOF when the provider signals
// completion; any other error is terminal.
func (s *Stream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.done = true
			return "", fmt.Errorf("llm: decode chunk: %s", truncate(data, 400))
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("llm: read stream: %w", err)
	}
	return "", io.EOF
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
