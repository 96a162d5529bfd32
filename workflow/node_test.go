package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from     Node
		decision Decision
		want     Node
	}{
		{NodeRouteEntry, DecisionWebSearch, NodeWebSearch},
		{NodeRouteEntry, DecisionVectorstore, NodeRetrieve},
		{NodeRetrieve, DecisionContinue, NodeGradeDocuments},
		{NodeGradeDocuments, DecisionWebSearch, NodeWebSearch},
		{NodeGradeDocuments, DecisionGenerate, NodeGenerate},
		{NodeWebSearch, DecisionContinue, NodeGenerate},
		{NodeGenerate, DecisionNotSupported, NodeGenerate},
		{NodeGenerate, DecisionUseful, NodeDone},
		{NodeGenerate, DecisionNotUseful, NodeWebSearch},
		{NodeGenerate, DecisionMaxRetries, NodeDone},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+string(tt.decision), func(t *testing.T) {
			next, err := Transition(tt.from, tt.decision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestTransitionRejectsUnknownEdges(t *testing.T) {
	_, err := Transition(NodeRetrieve, DecisionUseful)
	assert.Error(t, err)

	_, err = Transition(NodeDone, DecisionContinue)
	assert.Error(t, err)

	_, err = Transition(NodeRouteEntry, Decision("banana"))
	assert.Error(t, err)
}

func TestDecideAfterGeneration(t *testing.T) {
	tests := []struct {
		name       string
		grounded   bool
		useful     bool
		loopStep   int
		maxRetries int
		want       Decision
	}{
		{"not grounded under bound", false, false, 1, 3, DecisionNotSupported},
		{"not grounded at bound retries", false, false, 3, 3, DecisionNotSupported},
		{"not grounded past bound", false, false, 4, 3, DecisionMaxRetries},
		{"useful", true, true, 1, 3, DecisionUseful},
		{"useful past bound still succeeds", true, true, 9, 3, DecisionUseful},
		{"not useful at bound", true, false, 3, 3, DecisionNotUseful},
		{"not useful past bound", true, false, 4, 3, DecisionMaxRetries},
		{"zero retries first attempt", false, false, 1, 0, DecisionMaxRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decideAfterGeneration(tt.grounded, tt.useful, tt.loopStep, tt.maxRetries))
		})
	}
}

func TestNodeString(t *testing.T) {
	assert.Equal(t, "grade_documents", NodeGradeDocuments.String())
	assert.Equal(t, "node(42)", Node(42).String())

	raw, err := json.Marshal([]Node{NodeRouteEntry, NodeGenerate})
	require.NoError(t, err)
	assert.JSONEq(t, `["route_entry","generate"]`, string(raw))
}
