package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	questions  []string
	maxRetries []int
	optCounts  []int
	answer     string
	err        error
}

func (r *scriptedRunner) Run(ctx context.Context, initial workflow.State, opts ...workflow.RunOption) (*workflow.State, error) {
	r.questions = append(r.questions, initial.Question)
	r.maxRetries = append(r.maxRetries, initial.MaxRetries)
	r.optCounts = append(r.optCounts, len(opts))
	if r.err != nil {
		return nil, r.err
	}
	st := initial
	st.Status = workflow.StatusSuccess
	st.Generation = &workflow.Generation{Content: r.answer}
	st.Documents = []workflow.Document{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	return &st, nil
}

func TestParseMaxRetries(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		notice bool
	}{
		{input: "", want: 3},
		{input: "  ", want: 3},
		{input: "5", want: 5},
		{input: "0", want: 0},
		{input: "abc", want: 3, notice: true},
		{input: "-2", want: 3, notice: true},
	}
	for _, tt := range tests {
		got, notice := parseMaxRetries(tt.input, 3)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Equal(t, tt.notice, notice != "", tt.input)
	}
}

func TestSessionLoop(t *testing.T) {
	runner := &scriptedRunner{answer: "Rotate credentials"}
	var out bytes.Buffer
	s := &session{
		runner:            runner,
		in:                strings.NewReader("What is MFA?\nxyz\n\nHow to patch?\n7\nexit\n"),
		out:               &out,
		defaultMaxRetries: 3,
		webSearch:         true,
	}

	require.NoError(t, s.loop(context.Background(), -1))

	assert.Equal(t, []string{"What is MFA?", "How to patch?"}, runner.questions)
	assert.Equal(t, []int{3, 7}, runner.maxRetries)
	assert.Equal(t, []int{0, 0}, runner.optCounts)
	assert.Contains(t, out.String(), "Invalid input, using default value of 3")
	assert.Contains(t, out.String(), "Answer: Rotate credentials")
	assert.Contains(t, out.String(), "Based on 3 documents")
}

func TestSessionLoopFixedRetriesAndEOF(t *testing.T) {
	runner := &scriptedRunner{answer: "ok"}
	s := &session{
		runner:            runner,
		in:                strings.NewReader("q1\nq2\n"),
		out:               &bytes.Buffer{},
		defaultMaxRetries: 3,
	}

	require.NoError(t, s.loop(context.Background(), 1))

	assert.Equal(t, []string{"q1", "q2"}, runner.questions)
	assert.Equal(t, []int{1, 1}, runner.maxRetries)
	assert.Equal(t, []int{1, 1}, runner.optCounts)
}

func TestSessionLoopReportsErrorsAndContinues(t *testing.T) {
	runner := &scriptedRunner{err: errors.New("capability_failure at retrieve")}
	var out bytes.Buffer
	s := &session{runner: runner, in: strings.NewReader("q\n\nquit\n"), out: &out, defaultMaxRetries: 3}

	require.NoError(t, s.loop(context.Background(), -1))

	assert.Len(t, runner.questions, 1)
	assert.Contains(t, out.String(), "Error: capability_failure at retrieve")
}

func TestProgressReporter(t *testing.T) {
	var out bytes.Buffer
	p := &progressReporter{out: &out}

	require.NoError(t, p.Send(&workflow.Event{Type: workflow.EventNodeStarted, Node: workflow.NodeRetrieve}))
	require.NoError(t, p.Send(&workflow.Event{Type: workflow.EventNodeCompleted, Node: workflow.NodeRetrieve}))
	require.NoError(t, p.Send(&workflow.Event{Type: workflow.EventDecision, Decision: workflow.DecisionGenerate}))

	assert.Equal(t, "---RETRIEVE---\n---DECISION: GENERATE---\n", out.String())
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()

	require.NoError(t, cmd.ParseFlags([]string{"--question", "hi", "--max-retries", "2", "-v"}))

	q, _ := cmd.Flags().GetString("question")
	n, _ := cmd.Flags().GetInt("max-retries")
	v, _ := cmd.Flags().GetBool("verbose")
	c, _ := cmd.Flags().GetString("config")
	assert.Equal(t, "hi", q)
	assert.Equal(t, 2, n)
	assert.True(t, v)
	assert.Equal(t, "config.ini", c)
}
