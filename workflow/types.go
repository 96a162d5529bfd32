package workflow

import "context"

// Document is a unit of evidence. The engine aggregates and filters documents but never builds
// their content, except for the synthetic web-search document.
type Document struct {
	Content  string            `json:"content" bson:"content"`
	Metadata map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

func (d Document) Source() string {
	return d.Metadata["source"]
}

// SearchResult is one web-search hit. Results with empty Content are skipped.
type SearchResult struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
}

type Generation struct {
	Content string `json:"content" bson:"content"`
}

// Retriever returns documents ordered by relevance. Implementations must be safe for concurrent use.
type Retriever interface {
	Search(ctx context.Context, query string) ([]Document, error)
}

// Inference wraps the language model. CompleteStructured returns the decoded JSON object and wraps
// ErrMalformedOutput when the reply is not one.
type Inference interface {
	CompleteFree(ctx context.Context, prompt string) (string, error)
	CompleteStructured(ctx context.Context, systemInstruction, userPrompt string) (map[string]any, error)
}

type WebSearch interface {
	Query(ctx context.Context, query string) ([]SearchResult, error)
}
