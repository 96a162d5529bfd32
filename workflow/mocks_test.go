package workflow

import (
	"context"
	"strings"
	"sync"
)

func yes() map[string]any { return map[string]any{"binary_score": "yes", "explanation": "ok"} }
func no() map[string]any  { return map[string]any{"binary_score": "no", "explanation": "nope"} }

// scriptedInference dispatches on the system instruction so each grader can be scripted on its own.
type scriptedInference struct {
	mu sync.Mutex

	route     func() (map[string]any, error)
	docGrade  func(userPrompt string) (map[string]any, error)
	grounded  func(call int) (map[string]any, error)
	useful    func(call int) (map[string]any, error)
	generate  func(call int, prompt string) (string, error)
	callCount map[string]int
	prompts   []string
}

func newScriptedInference() *scriptedInference {
	return &scriptedInference{
		route:    func() (map[string]any, error) { return map[string]any{"datasource": "vectorstore"}, nil },
		docGrade: func(string) (map[string]any, error) { return yes(), nil },
		grounded: func(int) (map[string]any, error) { return yes(), nil },
		useful:   func(int) (map[string]any, error) { return yes(), nil },
		generate: func(call int, _ string) (string, error) {
			return "answer " + string(rune('0'+call)), nil
		},
		callCount: map[string]int{},
	}
}

func (m *scriptedInference) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[kind]++
	return m.callCount[kind]
}

func (m *scriptedInference) calls(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[kind]
}

func (m *scriptedInference) CompleteFree(ctx context.Context, prompt string) (string, error) {
	call := m.count("generate")
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.generate(call, prompt)
}

func (m *scriptedInference) CompleteStructured(ctx context.Context, system, user string) (map[string]any, error) {
	switch {
	case strings.Contains(system, "routing a user question"):
		m.count("route")
		return m.route()
	case strings.Contains(system, "grader assessing relevance"):
		m.count("docGrade")
		return m.docGrade(user)
	case strings.Contains(system, "against the FACTS"):
		return m.grounded(m.count("grounded"))
	case strings.Contains(system, "QUESTION and a LLM ANSWER"):
		return m.useful(m.count("useful"))
	}
	panic("unexpected structured prompt: " + system)
}

type mockRetriever struct {
	mu    sync.Mutex
	docs  []Document
	err   error
	calls int
	hook  func()
}

func (m *mockRetriever) Search(ctx context.Context, query string) ([]Document, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.hook != nil {
		m.hook()
	}
	if m.err != nil {
		return nil, m.err
	}
	return append([]Document(nil), m.docs...), nil
}

type mockWebSearch struct {
	mu      sync.Mutex
	results []SearchResult
	err     error
	calls   int
}

func (m *mockWebSearch) Query(ctx context.Context, query string) ([]SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type recordingReporter struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (r *recordingReporter) Send(event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingReporter) ofType(t EventType) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func docs(contents ...string) []Document {
	out := make([]Document, 0, len(contents))
	for _, c := range contents {
		out = append(out, Document{Content: c, Metadata: map[string]string{"source": c + ".txt"}})
	}
	return out
}
