package workflow

import "errors"

type EngineBuilder struct {
	engine Engine
}

func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		engine: Engine{reporter: &LogReporter{}},
	}
}

func (b *EngineBuilder) WithRetriever(r Retriever) *EngineBuilder {
	b.engine.retriever = r
	return b
}

func (b *EngineBuilder) WithInference(i Inference) *EngineBuilder {
	b.engine.inference = i
	return b
}

func (b *EngineBuilder) WithWebSearch(w WebSearch) *EngineBuilder {
	b.engine.webSearcher = w
	return b
}

func (b *EngineBuilder) WithReporter(r Reporter) *EngineBuilder {
	b.engine.reporter = r
	return b
}

func (b *EngineBuilder) Build() (*Engine, error) {
	var errs []error
	if b.engine.retriever == nil {
		errs = append(errs, errors.New("retriever is required"))
	}
	if b.engine.inference == nil {
		errs = append(errs, errors.New("inference is required"))
	}
	if b.engine.webSearcher == nil {
		errs = append(errs, errors.New("web search is required"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if b.engine.reporter == nil {
		b.engine.reporter = &NoOpReporter{}
	}

	engine := b.engine
	return &engine, nil
}
