package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/anihan/farm-assist/internal/assist"
)

const geminiModel = "gemini-2.5-flash"

// GeminiClient is the alternative model backend, selected with
// MODEL_PROVIDER=gemini.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY or GEMINI_API_KEY")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string, history []assist.ChatMessage) assist.ModelResult {
	var user strings.Builder
	for _, m := range history {
		user.WriteString(m.Role)
		user.WriteString(": ")
		user.WriteString(m.Content)
		user.WriteString("\n")
	}
	user.WriteString(prompt)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(systemPrompt)[0],
	}

	resp, err := g.client.Models.GenerateContent(ctx, geminiModel, genai.Text(user.String()), cfg)
	if err != nil {
		return assist.ModelResult{Error: fmt.Sprintf("gemini generateContent error: %v", err)}
	}
	if resp == nil {
		return assist.ModelResult{Error: "empty response from gemini"}
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return assist.ModelResult{Error: "model returned empty text"}
	}
	return assist.ModelResult{OK: true, Text: txt}
}

var _ assist.ModelClient = (*GeminiClient)(nil)
