// Package gemini implements the ai.Completer interface on the Google
// GenAI client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jobsift/jobsift/internal/ai"
)

// Generator wraps the Google GenAI client behind the Completer interface.
type Generator struct {
	client *genai.Client
}

// NewGenerator creates a generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{client: client}, nil
}

func (g *Generator) Provider() string { return "gemini" }

// Complete sends the request to Gemini. System messages become the system
// instruction; the remaining messages are concatenated into the prompt.
func (g *Generator) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, errors.New("model is required")
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	var prompt strings.Builder
	for _, message := range req.Messages {
		text := strings.TrimSpace(message.Content)
		if text == "" {
			continue
		}

		if message.Role == ai.RoleSystem {
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			}
			continue
		}

		if prompt.Len() > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(text)
	}

	if prompt.Len() == 0 {
		return nil, errors.New("prompt must not be empty")
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt.String()), cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &ai.Response{Content: output, TotalTokens: tokens}, nil
}
