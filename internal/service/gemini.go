package service

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// NewGenAIClient builds a Gemini API client. baseURL overrides the endpoint
// and is empty in production.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// GeminiChat implements ChatModel on Gemini's generateContent.
type GeminiChat struct {
	client *genai.Client
	model  string
}

func NewGeminiChat(client *genai.Client, model string) *GeminiChat {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiChat{client: client, model: model}
}

func (g *GeminiChat) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
