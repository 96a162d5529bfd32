package workflow

import "strings"

type WebSearchFlag string

const (
	WebSearchYes WebSearchFlag = "Yes"
	WebSearchNo  WebSearchFlag = "No"
)

type RunStatus string

const (
	StatusRunning   RunStatus = ""
	StatusSuccess   RunStatus = "success"
	StatusExhausted RunStatus = "exhausted"
)

const DefaultMaxRetries = 3

// State is the per-run record threaded through the nodes. Nodes never mutate it; they return an
// Update which the engine merges with Apply.
type State struct {
	RunID      string        `json:"run_id"`
	Question   string        `json:"question"`
	Documents  []Document    `json:"documents"`
	WebSearch  WebSearchFlag `json:"web_search"`
	MaxRetries int           `json:"max_retries"`
	LoopStep   int           `json:"loop_step"`
	Generation *Generation   `json:"generation,omitempty"`
	Answers    int           `json:"answers"` // reserved, never advanced
	Status     RunStatus     `json:"status"`
	Trace      []Node        `json:"trace"`
}

func NewState(question string, maxRetries int) State {
	return State{
		Question:   question,
		WebSearch:  WebSearchNo,
		MaxRetries: maxRetries,
		Documents:  []Document{},
	}
}

// Update is the partial result of one node.
type Update struct {
	// ReplaceDocuments swaps the document list for Documents; otherwise Documents is appended.
	ReplaceDocuments  bool
	Documents         []Document
	WebSearch         WebSearchFlag // empty leaves the flag unchanged
	Generation        *Generation
	IncrementLoopStep bool
}

// Apply returns a copy of s with u merged in. s is left untouched.
func (s State) Apply(u Update) State {
	next := s.Clone()

	if u.ReplaceDocuments {
		next.Documents = append(make([]Document, 0, len(u.Documents)), u.Documents...)
	} else if len(u.Documents) > 0 {
		next.Documents = append(next.Documents, u.Documents...)
	}

	if u.WebSearch != "" {
		next.WebSearch = u.WebSearch
	}

	if u.Generation != nil {
		generation := *u.Generation
		next.Generation = &generation
	}

	if u.IncrementLoopStep {
		next.LoopStep++
	}

	return next
}

// Clone deep-copies the slices and the generation so the copy shares nothing mutable with s.
func (s State) Clone() State {
	next := s
	next.Documents = append(make([]Document, 0, len(s.Documents)), s.Documents...)
	next.Trace = append(make([]Node, 0, len(s.Trace)), s.Trace...)
	if s.Generation != nil {
		generation := *s.Generation
		next.Generation = &generation
	}
	return next
}

func (s State) Answer() string {
	if s.Generation == nil {
		return ""
	}
	return s.Generation.Content
}

// FormatDocuments joins document contents with a blank line.
func FormatDocuments(docs []Document) string {
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.Content)
	}
	return strings.Join(contents, "\n\n")
}
