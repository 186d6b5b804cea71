// Package llm wraps the Gemini API for embeddings and text generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/rickgao/stockdb/internal/config"
)

// maxEmbedBatch is the most texts the API embeds in one request.
const maxEmbedBatch = 100

// Gemini embeds and generates with one configured client.
type Gemini struct {
	client         *genai.Client
	model          string
	embeddingModel string
	temperature    float32
	logger         *slog.Logger
}

// NewGemini creates a Gemini client. An empty API key falls back to the
// GEMINI_API_KEY / GOOGLE_API_KEY environment variables.
func NewGemini(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var cc *genai.ClientConfig
	if cfg.APIKey != "" || cfg.BaseURL != "" {
		cc = &genai.ClientConfig{
			APIKey:      cfg.APIKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
		}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    cfg.Temperature,
		logger:         logger,
	}, nil
}

// Embed returns one vector per text.
func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxEmbedBatch {
		end := min(i+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-i)
		for _, t := range texts[i:end] {
			contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(contents))
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}

	g.logger.Debug("embedded texts", "count", len(texts), "model", g.embeddingModel)
	return out, nil
}

// Generate answers prompt under the system instruction.
func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("generate content: empty response")
	}
	return text, nil
}
