package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.uber.org/zap"
)

// WeaviateRetriever runs a nearVector query against a class whose objects carry content,
// source and title properties.
type WeaviateRetriever struct {
	client    *weaviate.Client
	embedder  Embedder
	className string
	k         int
}

func NewWeaviateRetriever(host, scheme, className string, embedder Embedder, k int) (*WeaviateRetriever, error) {
	client, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	return &WeaviateRetriever{client: client, embedder: embedder, className: className, k: k}, nil
}

func (r *WeaviateRetriever) Search(ctx context.Context, query string) ([]workflow.Document, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	nearVector := r.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "title"},
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.className).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(r.k).
		Do(ctx)
	if err != nil {
		logger.Error("Weaviate search failed", zap.String("class", r.className), zap.Error(err))
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search failed: %s", result.Errors[0].Message)
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}
	return parseWeaviateDocuments(raw, r.className)
}

type weaviateObject struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Title   string `json:"title"`
}

func parseWeaviateDocuments(raw []byte, className string) ([]workflow.Document, error) {
	var response struct {
		Get map[string][]weaviateObject `json:"Get"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to parse weaviate results: %w", err)
	}

	objects := response.Get[className]
	docs := make([]workflow.Document, 0, len(objects))
	for _, o := range objects {
		docs = append(docs, workflow.Document{
			Content:  o.Content,
			Metadata: map[string]string{"source": o.Source, "title": o.Title},
		})
	}
	return docs, nil
}
