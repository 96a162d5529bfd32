package workflow

import (
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

type EventType string

const (
	EventNodeStarted   EventType = "node_started"
	EventNodeCompleted EventType = "node_completed"
	EventDecision      EventType = "decision"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
)

type Event struct {
	Type      EventType
	RunID     string
	Node      Node
	Decision  Decision
	LoopStep  int
	Status    RunStatus
	Err       error
	Duration  time.Duration
	Timestamp int64
}

// Reporter receives run progress. Send errors are logged and never change the run's outcome.
type Reporter interface {
	Send(event *Event) error
}

type NoOpReporter struct{}

func (r *NoOpReporter) Send(event *Event) error {
	return nil
}

// LogReporter writes one log line per event.
type LogReporter struct{}

func (r *LogReporter) Send(event *Event) error {
	switch event.Type {
	case EventNodeStarted:
		logger.Info("---"+event.Node.String()+"---", zap.String("runId", event.RunID))
	case EventDecision:
		logger.Info("---DECISION: "+string(event.Decision)+"---",
			zap.String("runId", event.RunID),
			zap.Stringer("node", event.Node),
			zap.Int("loopStep", event.LoopStep))
	case EventRunCompleted:
		logger.Info("Run completed",
			zap.String("runId", event.RunID),
			zap.String("status", string(event.Status)),
			zap.Int("loopStep", event.LoopStep),
			zap.Duration("duration", event.Duration))
	case EventRunFailed:
		logger.Error("Run failed",
			zap.String("runId", event.RunID),
			zap.Stringer("node", event.Node),
			zap.Error(event.Err))
	}
	return nil
}

// MultiReporter forwards every event to each reporter, returning the first error.
type MultiReporter []Reporter

func (m MultiReporter) Send(event *Event) error {
	var first error
	for _, r := range m {
		if err := r.Send(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newEvent(eventType EventType, st State, node Node) *Event {
	return &Event{
		Type:      eventType,
		RunID:     st.RunID,
		Node:      node,
		LoopStep:  st.LoopStep,
		Status:    st.Status,
		Timestamp: time.Now().UnixMilli(),
	}
}
