package vectorstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto a 3-d space by keyword so similarity is predictable.
type keywordEmbedder struct {
	calls atomic.Int32
	fail  bool
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	v := []float32{0, 0, 0}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "phishing") {
		v[0] = 1
	}
	if strings.Contains(lower, "ransomware") {
		v[1] = 1
	}
	if strings.Contains(lower, "firewall") {
		v[2] = 1
	}
	return v, nil
}

func (e *keywordEmbedder) Model() string { return "keyword" }

func TestSplitTextOverlap(t *testing.T) {
	s, err := NewSplitter(10, 3, utf8.RuneCountInString)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa bbbb", "cccc dddd"}, s.SplitText("aaaa bbbb cccc dddd"))

	s, err = NewSplitter(10, 5, utf8.RuneCountInString)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"}, s.SplitText("aaaa bbbb cccc dddd"))
}

func TestSplitTextPrefersParagraphs(t *testing.T) {
	s, err := NewSplitter(20, 0, utf8.RuneCountInString)
	require.NoError(t, err)

	chunks := s.SplitText("first paragraph\n\nsecond paragraph")

	assert.Equal(t, []string{"first paragraph", "second paragraph"}, chunks)
}

func TestSplitTextChunksFitSize(t *testing.T) {
	s, err := NewSplitter(16, 4, utf8.RuneCountInString)
	require.NoError(t, err)

	text := strings.Repeat("lateral movement detected on host ", 12) + strings.Repeat("x", 40)
	for _, chunk := range s.SplitText(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 16, chunk)
		assert.NotEmpty(t, chunk)
	}
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0, utf8.RuneCountInString)
	assert.Error(t, err)
	_, err = NewSplitter(10, 10, utf8.RuneCountInString)
	assert.Error(t, err)
	_, err = NewSplitter(10, -1, utf8.RuneCountInString)
	assert.Error(t, err)
}

func TestSplitDocumentsTagsChunks(t *testing.T) {
	s, err := NewSplitter(10, 0, utf8.RuneCountInString)
	require.NoError(t, err)

	chunks := s.SplitDocuments([]workflow.Document{{
		Content:  "aaaa bbbb cccc dddd",
		Metadata: map[string]string{"source": "notes.txt"},
	}})

	require.Len(t, chunks, 2)
	assert.Equal(t, "0", chunks[0].Metadata["chunk_index"])
	assert.Equal(t, "1", chunks[1].Metadata["chunk_index"])
	assert.Equal(t, "notes.txt", chunks[1].Source())
	assert.Len(t, chunks[0].Metadata["chunk_id"], 16)
	assert.NotEqual(t, chunks[0].Metadata["chunk_id"], chunks[1].Metadata["chunk_id"])
	assert.Equal(t, ChunkID("notes.txt", "aaaa bbbb"), chunks[0].Metadata["chunk_id"])
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func TestMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	embedder := &keywordEmbedder{}
	docs := []workflow.Document{
		{Content: "firewall rules"},
		{Content: "ransomware recovery"},
		{Content: "phishing awareness"},
		{Content: "phishing and ransomware"},
	}

	store, err := NewMemoryStore(context.Background(), embedder, docs, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())

	got, err := store.Search(context.Background(), "how do I spot phishing?")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "phishing awareness", got[0].Content)
	assert.Equal(t, "phishing and ransomware", got[1].Content)
}

func TestMemoryStoreDefaultsK(t *testing.T) {
	docs := make([]workflow.Document, 20)
	for i := range docs {
		docs[i] = workflow.Document{Content: "phishing"}
	}
	embedder := &keywordEmbedder{}

	store, err := NewMemoryStore(context.Background(), embedder, docs, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(20), embedder.calls.Load())

	got, err := store.Search(context.Background(), "phishing")
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)
}

func TestMemoryStoreEmptyReturnsNothing(t *testing.T) {
	embedder := &keywordEmbedder{}
	store, err := NewMemoryStore(context.Background(), embedder, nil, 3)
	require.NoError(t, err)

	got, err := store.Search(context.Background(), "anything")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, int32(0), embedder.calls.Load())
}

func TestMemoryStoreEmbedFailure(t *testing.T) {
	_, err := NewMemoryStore(context.Background(), &keywordEmbedder{fail: true}, []workflow.Document{{Content: "x"}}, 3)
	assert.Error(t, err)
}

type stubLoader struct {
	docs []workflow.Document
	err  error
}

func (l stubLoader) Load(ctx context.Context, src string) ([]workflow.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := make([]workflow.Document, len(l.docs))
	for i, d := range l.docs {
		out[i] = workflow.Document{Content: d.Content, Metadata: map[string]string{"source": src}}
	}
	return out, nil
}

func newTestIngestor(embedder Embedder, loaders map[SourceKind]Loader) *Ingestor {
	return &Ingestor{
		newEmbedder: func(model string) (Embedder, error) { return embedder, nil },
		loaders:     loaders,
		classify: func(ctx context.Context, src string) SourceKind {
			switch {
			case strings.HasSuffix(src, ".pdf"):
				return SourcePDF
			case strings.HasPrefix(src, "broken"):
				return SourceText
			default:
				return SourceWeb
			}
		},
		counter: utf8.RuneCountInString,
	}
}

func TestIngestorSkipsFailedSources(t *testing.T) {
	in := newTestIngestor(&keywordEmbedder{}, map[SourceKind]Loader{
		SourceWeb:  stubLoader{docs: []workflow.Document{{Content: "phishing kits are sold online"}}},
		SourcePDF:  stubLoader{docs: []workflow.Document{{Content: "ransomware negotiation guide"}}},
		SourceText: stubLoader{err: errors.New("permission denied")},
	})

	store, err := in.Build(context.Background(), Config{
		Sources: []string{"https://site.example", "broken.txt", "report.pdf"},
		K:       5,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	got, err := store.Search(context.Background(), "ransomware")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "report.pdf", got[0].Source())
}

func TestIngestorEmptyCorpus(t *testing.T) {
	embedder := &keywordEmbedder{}
	in := newTestIngestor(embedder, map[SourceKind]Loader{
		SourceText: stubLoader{err: errors.New("missing")},
	})

	store, err := in.Build(context.Background(), Config{Sources: []string{"broken.txt"}})

	require.NoError(t, err)
	got, err := store.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIngestorRejectsBadChunking(t *testing.T) {
	in := newTestIngestor(&keywordEmbedder{}, nil)

	_, err := in.Build(context.Background(), Config{ChunkSize: 10, ChunkOverlap: 10})

	assert.Error(t, err)
}

func TestConfigKey(t *testing.T) {
	base := Config{Sources: []string{"a", "b"}}

	assert.Equal(t, base.Key(), Config{
		Sources:        []string{"a", "b"},
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   0,
		EmbeddingModel: DefaultEmbeddingModel,
		K:              DefaultTopK,
	}.Key())
	assert.NotEqual(t, base.Key(), Config{Sources: []string{"b", "a"}}.Key())
	assert.NotEqual(t, base.Key(), Config{Sources: []string{"a", "b"}, K: 7}.Key())
	assert.NotEqual(t, base.Key(), Config{Sources: []string{"a", "b"}, EmbeddingModel: "mxbai"}.Key())
	assert.NotEqual(t, base.Key(), Config{Sources: []string{"a", "b"}, ChunkSize: 500}.Key())
	assert.NotEqual(t, base.Key(), Config{Sources: []string{"ab"}}.Key())
}

type fixedRetriever struct{ id int }

func (r *fixedRetriever) Search(ctx context.Context, query string) ([]workflow.Document, error) {
	return nil, nil
}

func TestCacheBuildsOncePerConfig(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, cfg Config) (workflow.Retriever, error) {
		n := builds.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &fixedRetriever{id: int(n)}, nil
	})

	cfg := Config{Sources: []string{"https://a.example"}}
	results := make([]workflow.Retriever, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := cache.Get(context.Background(), cfg)
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	other, err := cache.Get(context.Background(), Config{Sources: []string{"https://a.example"}, K: 9})
	require.NoError(t, err)
	assert.NotSame(t, results[0], other)
	assert.Equal(t, int32(2), builds.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, cfg Config) (workflow.Retriever, error) {
		if builds.Add(1) == 1 {
			return nil, errors.New("ollama unreachable")
		}
		return &fixedRetriever{}, nil
	})

	_, err := cache.Get(context.Background(), Config{})
	require.Error(t, err)

	r, err := cache.Get(context.Background(), Config{})
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, int32(2), builds.Load())
}

func TestParseWeaviateDocuments(t *testing.T) {
	raw := []byte(`{"Get":{"Chunk":[
		{"content":"use MFA","source":"https://a.example","title":"Auth"},
		{"content":"patch often","source":"b.pdf","title":"Ops"}]}}`)

	docs, err := parseWeaviateDocuments(raw, "Chunk")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "use MFA", docs[0].Content)
	assert.Equal(t, "https://a.example", docs[0].Source())
	assert.Equal(t, "Ops", docs[1].Metadata["title"])

	docs, err = parseWeaviateDocuments([]byte(`{"Get":{}}`), "Chunk")
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = parseWeaviateDocuments([]byte(`not json`), "Chunk")
	assert.Error(t, err)
}
