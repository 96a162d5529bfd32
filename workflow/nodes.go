package workflow

import (
	"context"
	"strings"

	"github.com/SaiNageswarS/crag-boot/prompts"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// step pairs a node's work with the decision that picks the next edge. run is nil for the
// virtual entry node.
type step struct {
	run    func(ctx context.Context, st State, opts runOptions) (Update, error)
	decide func(ctx context.Context, st State) (Decision, error)
}

func (e *Engine) steps() map[Node]step {
	return map[Node]step{
		NodeRouteEntry: {
			decide: func(ctx context.Context, st State) (Decision, error) {
				return e.route(ctx, st.Question)
			},
		},
		NodeRetrieve:       {run: e.retrieve, decide: always(DecisionContinue)},
		NodeGradeDocuments: {run: e.gradeDocuments, decide: decideToGenerate},
		NodeWebSearch:      {run: e.webSearch, decide: always(DecisionContinue)},
		NodeGenerate:       {run: e.generate, decide: e.gradeGeneration},
	}
}

func always(d Decision) func(context.Context, State) (Decision, error) {
	return func(context.Context, State) (Decision, error) { return d, nil }
}

func (e *Engine) retrieve(ctx context.Context, st State, _ runOptions) (Update, error) {
	docs, err := e.retriever.Search(ctx, st.Question)
	if err != nil {
		return Update{}, e.capabilityError(ctx, NodeRetrieve, "retrieve documents", err)
	}
	return Update{ReplaceDocuments: true, Documents: docs}, nil
}

// gradeDocuments grades every document concurrently and keeps the relevant ones in input order.
// The first failure cancels the grades still in flight.
func (e *Engine) gradeDocuments(ctx context.Context, st State, _ runOptions) (Update, error) {
	gradeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make([]<-chan async.Result[bool], 0, len(st.Documents))
	for _, doc := range st.Documents {
		tasks = append(tasks, async.Go(func() (bool, error) {
			return e.gradeDocument(gradeCtx, st.Question, doc)
		}))
	}

	relevant := make([]Document, 0, len(st.Documents))
	flag := WebSearchNo
	for i, doc := range st.Documents {
		isRelevant, err := async.Await(tasks[i])
		if err != nil {
			return Update{}, e.capabilityError(ctx, NodeGradeDocuments, "grade document", err)
		}
		if isRelevant {
			relevant = append(relevant, doc)
			continue
		}
		flag = WebSearchYes
	}

	logger.Info("Graded documents",
		zap.String("runId", st.RunID),
		zap.Int("relevant", len(relevant)),
		zap.Int("total", len(st.Documents)))

	return Update{ReplaceDocuments: true, Documents: relevant, WebSearch: flag}, nil
}

func decideToGenerate(_ context.Context, st State) (Decision, error) {
	if st.WebSearch == WebSearchYes {
		return DecisionWebSearch, nil
	}
	return DecisionGenerate, nil
}

// webSearch appends one synthetic document built from every result that has content.
func (e *Engine) webSearch(ctx context.Context, st State, opts runOptions) (Update, error) {
	if opts.disableWebSearch {
		logger.Info("Web search disabled for run, skipping", zap.String("runId", st.RunID))
		return Update{}, nil
	}

	results, err := e.webSearcher.Query(ctx, st.Question)
	if err != nil {
		return Update{}, e.capabilityError(ctx, NodeWebSearch, "web search", err)
	}

	return Update{Documents: []Document{SyntheticDocument(results)}}, nil
}

// SyntheticDocument newline-joins the content of every result.
func SyntheticDocument(results []SearchResult) Document {
	contents := make([]string, 0, len(results))
	for _, r := range results {
		if r.Content == "" {
			continue
		}
		contents = append(contents, r.Content)
	}
	return Document{
		Content:  strings.Join(contents, "\n"),
		Metadata: map[string]string{"source": "web_search"},
	}
}

func (e *Engine) generate(ctx context.Context, st State, _ runOptions) (Update, error) {
	prompt, err := prompts.RenderRAGPrompt(FormatDocuments(st.Documents), st.Question)
	if err != nil {
		return Update{}, newRunError(KindInternal, NodeGenerate, "render rag prompt", err)
	}

	answer, err := e.inference.CompleteFree(ctx, prompt)
	if err != nil {
		return Update{}, e.capabilityError(ctx, NodeGenerate, "generate answer", err)
	}

	return Update{Generation: &Generation{Content: answer}, IncrementLoopStep: true}, nil
}

// gradeGeneration checks groundedness, then usefulness only when grounded.
func (e *Engine) gradeGeneration(ctx context.Context, st State) (Decision, error) {
	generation := st.Answer()

	grounded, err := e.gradeGroundedness(ctx, st.Documents, generation)
	if err != nil {
		return "", err
	}

	useful := Grade{}
	if grounded.Pass {
		useful, err = e.gradeUsefulness(ctx, st.Question, generation)
		if err != nil {
			return "", err
		}
	}

	logger.Info("Graded generation",
		zap.String("runId", st.RunID),
		zap.Int("loopStep", st.LoopStep),
		zap.Bool("grounded", grounded.Pass),
		zap.Bool("useful", useful.Pass),
		zap.String("explanation", grounded.Explanation))

	return decideAfterGeneration(grounded.Pass, useful.Pass, st.LoopStep, st.MaxRetries), nil
}
