package commands

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/DiscountLegolas/memegen/pkg/caption"
)

const defaultGeminiModel = "gemini-2.0-flash"

func newGeminiGenerator(ctx context.Context, apiKey, model string) (caption.Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &caption.GeminiGenerator{Client: client, Model: model}, nil
}
