package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("crag-boot.workflow")

// Engine walks the corrective-RAG graph for one question at a time. An Engine holds no per-run
// state and may serve concurrent runs; each run owns its State.
type Engine struct {
	retriever   Retriever
	inference   Inference
	webSearcher WebSearch
	reporter    Reporter
}

type runOptions struct {
	disableWebSearch bool
	reporter         Reporter
}

type RunOption func(*runOptions)

// WithWebSearchDisabled turns the WebSearch node into a pass-through for one run.
func WithWebSearchDisabled() RunOption {
	return func(o *runOptions) { o.disableWebSearch = true }
}

// WithRunReporter adds a reporter for one run alongside the engine's own.
func WithRunReporter(r Reporter) RunOption {
	return func(o *runOptions) { o.reporter = r }
}

// Run executes the graph to completion. It returns either a final state whose Status is
// success or exhausted, or a *RunError and no state.
func (e *Engine) Run(ctx context.Context, initial State, opts ...RunOption) (*State, error) {
	options := runOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	reporter := e.reporter
	if options.reporter != nil {
		reporter = MultiReporter{e.reporter, options.reporter}
	}

	st := initial.Clone()
	if st.RunID == "" {
		st.RunID = uuid.NewString()
	}
	if st.WebSearch == "" {
		st.WebSearch = WebSearchNo
	}

	ctx, span := tracer.Start(ctx, "workflow.Run",
		trace.WithAttributes(
			attribute.String("run.id", st.RunID),
			attribute.Int("run.max_retries", st.MaxRetries),
		),
	)
	defer span.End()

	start := time.Now()

	if err := validate(st); err != nil {
		return nil, e.fail(span, reporter, st, err)
	}

	steps := e.steps()
	node := NodeRouteEntry
	for node != NodeDone {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(span, reporter, st, newRunError(KindCancelled, node, "run abandoned", err))
		}

		next, nextState, err := e.execute(ctx, reporter, steps[node], node, st, options)
		if err != nil {
			return nil, e.fail(span, reporter, st, err)
		}
		st, node = nextState, next
	}

	span.SetAttributes(
		attribute.String("run.status", string(st.Status)),
		attribute.Int("run.loop_step", st.LoopStep),
	)
	span.SetStatus(codes.Ok, "")

	done := newEvent(EventRunCompleted, st, NodeDone)
	done.Duration = time.Since(start)
	e.report(reporter, done)

	return &st, nil
}

// RunAsync runs the engine on its own goroutine.
func (e *Engine) RunAsync(ctx context.Context, initial State, opts ...RunOption) <-chan async.Result[*State] {
	return async.Go(func() (*State, error) {
		return e.Run(ctx, initial, opts...)
	})
}

func (e *Engine) execute(ctx context.Context, reporter Reporter, s step, node Node, st State, opts runOptions) (Node, State, error) {
	ctx, span := tracer.Start(ctx, "workflow."+node.String(),
		trace.WithAttributes(attribute.Int("run.loop_step", st.LoopStep)),
	)
	defer span.End()

	started := time.Now()
	e.report(reporter, newEvent(EventNodeStarted, st, node))
	st.Trace = append(st.Trace, node)

	if s.run != nil {
		update, err := s.run(ctx, st, opts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return NodeDone, st, err
		}
		st = st.Apply(update)
	}

	completed := newEvent(EventNodeCompleted, st, node)
	completed.Duration = time.Since(started)
	e.report(reporter, completed)

	decision, err := s.decide(ctx, st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return NodeDone, st, err
	}

	next, err := Transition(node, decision)
	if err != nil {
		return NodeDone, st, newRunError(KindInternal, node, "transition", err)
	}

	if next == NodeDone {
		st.Status = StatusExhausted
		if decision == DecisionUseful {
			st.Status = StatusSuccess
		}
	}

	decided := newEvent(EventDecision, st, node)
	decided.Decision = decision
	e.report(reporter, decided)

	span.SetAttributes(attribute.String("workflow.decision", string(decision)))
	return next, st, nil
}

func validate(st State) error {
	if strings.TrimSpace(st.Question) == "" {
		return newRunError(KindInvalidInput, NodeRouteEntry, "question is empty", nil)
	}
	if st.MaxRetries < 0 {
		return newRunError(KindInvalidInput, NodeRouteEntry, "max_retries must not be negative", nil)
	}
	return nil
}

func (e *Engine) fail(span trace.Span, reporter Reporter, st State, err error) error {
	runErr, ok := AsRunError(err)
	if !ok {
		runErr = newRunError(KindInternal, NodeDone, "unexpected failure", err)
	}

	span.RecordError(runErr)
	span.SetStatus(codes.Error, runErr.Error())

	failed := newEvent(EventRunFailed, st, runErr.Node)
	failed.Err = runErr
	e.report(reporter, failed)

	return runErr
}

func (e *Engine) capabilityError(ctx context.Context, node Node, reason string, err error) error {
	if runErr, ok := AsRunError(err); ok {
		return runErr
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return newRunError(KindCancelled, node, reason, err)
	}
	return newRunError(KindCapabilityFailure, node, reason, err)
}

func (e *Engine) report(reporter Reporter, event *Event) {
	if reporter == nil {
		return
	}
	if err := reporter.Send(event); err != nil {
		logger.Error("Failed to report progress", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
