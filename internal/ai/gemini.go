package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const systemInstruction = "You are a helpful productivity assistant. Generate a short, " +
	"encouraging message related to a task. Make it motivational, provide a tip, share a " +
	"fun fact, or be creative. Keep it under 100 characters and engaging."

// GeminiGenerator generates messages using Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, title string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(
			fmt.Sprintf("Generate an encouraging message for this task: %q", title),
			genai.RoleUser,
		),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.8),
		MaxOutputTokens:   100,
	})
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	return resp.Text(), nil
}
