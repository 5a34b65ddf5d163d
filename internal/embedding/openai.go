package embedding

import (
	"context"
	"fmt"

	"gopherai-docqa/internal/ai"
	"gopherai-docqa/internal/model"
)

// OpenAI embeds through an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	client *ai.OpenAICompatibleClient
	cfg    ai.EmbeddingConfig
	dim    int
}

func NewOpenAI(client *ai.OpenAICompatibleClient, cfg ai.EmbeddingConfig, dim int) (*OpenAI, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be positive", model.ErrInvalidConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: embedding model is required", model.ErrInvalidConfiguration)
	}
	return &OpenAI{client: client, cfg: cfg, dim: dim}, nil
}

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.client.EmbedBatch(ctx, e.cfg, texts)
	if err != nil {
		return nil, err
	}
	if err := CheckDimensions(vecs, e.dim); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (e *OpenAI) Dimension() int { return e.dim }

func (e *OpenAI) Name() string { return "openai:" + e.cfg.Model }
