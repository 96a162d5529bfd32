package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-collection-boot/async"
)

const (
	DefaultTopK    = 3
	embedBatchSize = 8
)

// MemoryStore is an immutable in-memory index searched by cosine similarity.
type MemoryStore struct {
	embedder Embedder
	docs     []workflow.Document
	vectors  [][]float32
	k        int
}

// NewMemoryStore embeds every document, at most embedBatchSize at a time.
func NewMemoryStore(ctx context.Context, embedder Embedder, docs []workflow.Document, k int) (*MemoryStore, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vectors := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))

		tasks := make([]<-chan async.Result[[]float32], 0, end-start)
		for _, doc := range docs[start:end] {
			tasks = append(tasks, async.Go(func() ([]float32, error) {
				return embedder.Embed(ctx, doc.Content)
			}))
		}

		batch, err := async.AwaitAll(tasks...)
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
		vectors = append(vectors, batch...)
	}

	return &MemoryStore{
		embedder: embedder,
		docs:     append([]workflow.Document(nil), docs...),
		vectors:  vectors,
		k:        k,
	}, nil
}

func (s *MemoryStore) Len() int {
	return len(s.docs)
}

// Search returns the k most similar documents, best first. Ties keep insertion order.
func (s *MemoryStore) Search(ctx context.Context, query string) ([]workflow.Document, error) {
	if len(s.docs) == 0 {
		return []workflow.Document{}, nil
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = scored{index: i, score: CosineSimilarity(queryVector, v)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	limit := min(s.k, len(scores))
	out := make([]workflow.Document, 0, limit)
	for _, sc := range scores[:limit] {
		out = append(out, s.docs[sc.index])
	}
	return out, nil
}

// CosineSimilarity is 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
