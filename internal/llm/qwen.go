// Package llm provides the hosted model clients. Both implement
// assist.ModelClient and encode failure in the result instead of returning
// errors: the orchestrator handles model unavailability, not the transport.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anihan/farm-assist/internal/assist"
)

const (
	defaultDashscopeURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1/chat/completions"
	qwenModel           = "qwen-plus"

	systemPrompt = "You are a helpful assistant specialized in providing agricultural advice to Filipino farmers. Be concise and practical."
)

// QwenClient calls Qwen through Dashscope's OpenAI-compatible endpoint.
type QwenClient struct {
	apiKey string
	url    string
	model  string
	http   *http.Client
}

type QwenOption func(*QwenClient)

func WithQwenURL(u string) QwenOption {
	return func(c *QwenClient) { c.url = u }
}

func WithQwenModel(m string) QwenOption {
	return func(c *QwenClient) { c.model = m }
}

func NewQwenClient(apiKey string, opts ...QwenOption) *QwenClient {
	c := &QwenClient{
		apiKey: apiKey,
		url:    defaultDashscopeURL,
		model:  qwenModel,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *QwenClient) Complete(ctx context.Context, prompt string, history []assist.ChatMessage) assist.ModelResult {
	if c.apiKey == "" {
		return assist.ModelResult{Error: "missing DASHSCOPE_API_KEY"}
	}

	messages := []chatMessage{{Role: "system", Content: systemPrompt}}
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return assist.ModelResult{Error: fmt.Sprintf("marshaling request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return assist.ModelResult{Error: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return assist.ModelResult{Error: fmt.Sprintf("calling model: %v", err)}
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return assist.ModelResult{Error: fmt.Sprintf("decoding response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := "request failed"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return assist.ModelResult{Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg)}
	}

	if len(out.Choices) == 0 {
		return assist.ModelResult{Error: "model returned no choices"}
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return assist.ModelResult{Error: "model returned empty text"}
	}
	return assist.ModelResult{OK: true, Text: text}
}

var _ assist.ModelClient = (*QwenClient)(nil)
