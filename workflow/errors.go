package workflow

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrMalformedOutput marks a structured inference reply that is not a JSON object.
var ErrMalformedOutput = errors.New("malformed structured output")

type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindGraderParseFailure ErrorKind = "grader_parse_failure"
	KindCapabilityFailure  ErrorKind = "capability_failure"
	KindCancelled          ErrorKind = "cancelled"
	KindInternal           ErrorKind = "internal"
)

// RunError is the only error type Engine.Run returns.
type RunError struct {
	Kind   ErrorKind
	Node   Node
	Reason string
	Err    error
}

func (e *RunError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Node, e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Node, e.Reason, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) GRPCStatus() *status.Status {
	code := codes.Internal
	switch e.Kind {
	case KindInvalidInput:
		code = codes.InvalidArgument
	case KindCancelled:
		code = codes.Canceled
	case KindCapabilityFailure:
		code = codes.Unavailable
	case KindGraderParseFailure:
		code = codes.DataLoss
	}
	return status.New(code, e.Error())
}

func AsRunError(err error) (*RunError, bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr, true
	}
	return nil, false
}

func newRunError(kind ErrorKind, node Node, reason string, err error) *RunError {
	return &RunError{Kind: kind, Node: node, Reason: reason, Err: err}
}
