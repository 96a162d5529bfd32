package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SaiNageswarS/crag-boot/history"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	// StatusClientClosedRequest is returned when the caller went away mid-run.
	StatusClientClosedRequest = 499
	noAnswer                  = "No answer generated."
)

func (s *Server) handleChatCompletion(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "HandleChatCompletion")
	defer span.End()

	var req ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Failed to parse chat completion request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	question, ok := lastUserMessage(req.Messages)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "No user message found in the request"})
		return
	}

	maxRetries := s.opts.DefaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}
	webSearch := !s.opts.WebSearchDisabled
	if req.WebSearchEnabled != nil {
		webSearch = *req.WebSearchEnabled
	}

	initial := workflow.NewState(question, maxRetries)
	initial.RunID = uuid.NewString()
	span.SetAttributes(
		attribute.String("run.id", initial.RunID),
		attribute.Int("run.max_retries", maxRetries),
		attribute.Bool("run.web_search_enabled", webSearch),
	)

	var opts []workflow.RunOption
	if !webSearch {
		opts = append(opts, workflow.WithWebSearchDisabled())
	}

	st, err := s.runner.Run(ctx, initial, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		_ = s.recorder.Save(ctx, history.FromFailure(initial, err))

		resp := ErrorResponse{Detail: err.Error(), RunID: initial.RunID}
		if runErr, ok := workflow.AsRunError(err); ok {
			resp.Kind = string(runErr.Kind)
		}
		c.JSON(httpStatus(err), resp)
		return
	}

	_ = s.recorder.Save(ctx, history.FromState(st))

	answer := st.Answer()
	if answer == "" {
		answer = noAnswer
	}

	promptTokens := s.opts.CountTokens(question)
	completionTokens := s.opts.CountTokens(answer)

	c.JSON(http.StatusOK, ChatCompletionResponse{
		ID:      completionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []ChatCompletionChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: answer},
			FinishReason: "stop",
		}},
		Usage: ChatCompletionUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		Workflow: summarize(st),
	})
}

func (s *Server) handleGetRun(c *gin.Context) {
	runID := c.Param("id")

	record, err := s.recorder.Find(c.Request.Context(), runID)
	if err != nil {
		detail := "run not found"
		if errors.Is(err, history.ErrDisabled) {
			detail = err.Error()
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: detail, RunID: runID})
		return
	}
	c.JSON(http.StatusOK, record)
}

func lastUserMessage(messages []ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, true
		}
	}
	return "", false
}

func completionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func summarize(st *workflow.State) WorkflowSummary {
	trace := make([]string, 0, len(st.Trace))
	for _, n := range st.Trace {
		trace = append(trace, n.String())
	}
	return WorkflowSummary{
		RunID:         st.RunID,
		Status:        string(st.Status),
		LoopStep:      st.LoopStep,
		DocumentCount: len(st.Documents),
		WebSearch:     string(st.WebSearch),
		Trace:         trace,
	}
}

// httpStatus maps a run failure onto an HTTP status code.
func httpStatus(err error) int {
	runErr, ok := workflow.AsRunError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch runErr.Kind {
	case workflow.KindInvalidInput:
		return http.StatusBadRequest
	case workflow.KindCancelled:
		return StatusClientClosedRequest
	case workflow.KindGraderParseFailure, workflow.KindCapabilityFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
