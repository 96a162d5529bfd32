package history

import (
	"time"

	"github.com/SaiNageswarS/crag-boot/workflow"
)

// RunRecord is the persisted summary of one workflow run.
type RunRecord struct {
	ID            string    `bson:"_id" json:"id"`
	Question      string    `bson:"question" json:"question"`
	Answer        string    `bson:"answer" json:"answer"`
	Status        string    `bson:"status" json:"status"`
	LoopStep      int       `bson:"loopStep" json:"loop_step"`
	MaxRetries    int       `bson:"maxRetries" json:"max_retries"`
	WebSearch     string    `bson:"webSearch" json:"web_search"`
	DocumentCount int       `bson:"documentCount" json:"document_count"`
	Sources       []string  `bson:"sources" json:"sources"`
	Trace         []string  `bson:"trace" json:"trace"`
	ErrorKind     string    `bson:"errorKind,omitempty" json:"error_kind,omitempty"`
	Error         string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"created_at"`
}

func (r RunRecord) Id() string {
	return r.ID
}

func (r RunRecord) CollectionName() string {
	return "crag_runs"
}

// FromState summarizes a finished run.
func FromState(st *workflow.State) RunRecord {
	trace := make([]string, 0, len(st.Trace))
	for _, n := range st.Trace {
		trace = append(trace, n.String())
	}

	sources := make([]string, 0, len(st.Documents))
	for _, d := range st.Documents {
		if src := d.Source(); src != "" {
			sources = append(sources, src)
		}
	}

	return RunRecord{
		ID:            st.RunID,
		Question:      st.Question,
		Answer:        st.Answer(),
		Status:        string(st.Status),
		LoopStep:      st.LoopStep,
		MaxRetries:    st.MaxRetries,
		WebSearch:     string(st.WebSearch),
		DocumentCount: len(st.Documents),
		Sources:       sources,
		Trace:         trace,
		CreatedAt:     time.Now().UTC(),
	}
}

// FromFailure records a run that ended with err.
func FromFailure(initial workflow.State, err error) RunRecord {
	rec := RunRecord{
		ID:         initial.RunID,
		Question:   initial.Question,
		Status:     "failed",
		MaxRetries: initial.MaxRetries,
		WebSearch:  string(initial.WebSearch),
		Sources:    []string{},
		Trace:      []string{},
		Error:      err.Error(),
		CreatedAt:  time.Now().UTC(),
	}
	if runErr, ok := workflow.AsRunError(err); ok {
		rec.ErrorKind = string(runErr.Kind)
	}
	return rec
}
