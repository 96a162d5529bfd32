package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ollama/ollama/api"
)

const DefaultEmbeddingModel = "nomic-embed-text"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type OllamaEmbedder struct {
	client *api.Client
	model  string
}

func NewOllamaEmbedder(model string) (*OllamaEmbedder, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}
	return NewOllamaEmbedderWith(client, model), nil
}

func NewOllamaEmbedderWith(client *api.Client, model string) *OllamaEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OllamaEmbedder{client: client, model: model}
}

func (e *OllamaEmbedder) Model() string {
	return e.model
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:     e.model,
		Prompt:    text,
		KeepAlive: &api.Duration{Duration: 60 * time.Minute},
	}
	resp, err := e.client.Embeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", e.model, err)
	}

	emb32 := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		emb32[i] = float32(v)
	}
	return emb32, nil
}
