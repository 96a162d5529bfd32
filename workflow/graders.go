package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/crag-boot/prompts"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// Grade is a parsed binary_score verdict.
type Grade struct {
	Pass        bool
	Explanation string
}

var errMissingScore = errors.New("binary_score missing or not a string")

// ParseRoute maps the router reply to a route. Anything but an exact "vectorstore" or
// "websearch" label goes to web search.
func ParseRoute(out map[string]any) Decision {
	if label, ok := out["datasource"].(string); ok && label == string(DecisionVectorstore) {
		return DecisionVectorstore
	}
	return DecisionWebSearch
}

// ParseGrade reads binary_score case-insensitively. Only "yes" passes.
func ParseGrade(out map[string]any) (Grade, error) {
	score, ok := out["binary_score"].(string)
	if !ok {
		return Grade{}, errMissingScore
	}

	explanation, _ := out["explanation"].(string)
	return Grade{
		Pass:        strings.EqualFold(strings.TrimSpace(score), "yes"),
		Explanation: explanation,
	}, nil
}

// route never fails on model output; only a capability error surfaces.
func (e *Engine) route(ctx context.Context, question string) (Decision, error) {
	instructions, err := prompts.RouterInstructions()
	if err != nil {
		return "", newRunError(KindInternal, NodeRouteEntry, "render router prompt", err)
	}

	out, err := e.inference.CompleteStructured(ctx, instructions, question)
	if err != nil {
		if errors.Is(err, ErrMalformedOutput) {
			logger.Info("Router output unparseable, routing to web search", zap.Error(err))
			return DecisionWebSearch, nil
		}
		return "", e.capabilityError(ctx, NodeRouteEntry, "route question", err)
	}

	decision := ParseRoute(out)
	if label, _ := out["datasource"].(string); label != string(decision) {
		logger.Info("Router label not recognized, routing to web search", zap.Any("datasource", out["datasource"]))
	}
	return decision, nil
}

func (e *Engine) gradeDocument(ctx context.Context, question string, doc Document) (bool, error) {
	system, user, err := prompts.RenderDocGraderPrompt(doc.Content, question)
	if err != nil {
		return false, newRunError(KindInternal, NodeGradeDocuments, "render document grader prompt", err)
	}

	grade, err := e.grade(ctx, NodeGradeDocuments, "grade document", system, user)
	if err != nil {
		return false, err
	}
	return grade.Pass, nil
}

func (e *Engine) gradeGroundedness(ctx context.Context, docs []Document, generation string) (Grade, error) {
	system, user, err := prompts.RenderHallucinationGraderPrompt(FormatDocuments(docs), generation)
	if err != nil {
		return Grade{}, newRunError(KindInternal, NodeGenerate, "render hallucination grader prompt", err)
	}
	return e.grade(ctx, NodeGenerate, "grade groundedness", system, user)
}

func (e *Engine) gradeUsefulness(ctx context.Context, question, generation string) (Grade, error) {
	system, user, err := prompts.RenderAnswerGraderPrompt(question, generation)
	if err != nil {
		return Grade{}, newRunError(KindInternal, NodeGenerate, "render answer grader prompt", err)
	}
	return e.grade(ctx, NodeGenerate, "grade usefulness", system, user)
}

// grade fails the run on any unparseable verdict.
func (e *Engine) grade(ctx context.Context, node Node, what, system, user string) (Grade, error) {
	out, err := e.inference.CompleteStructured(ctx, system, user)
	if err != nil {
		if errors.Is(err, ErrMalformedOutput) {
			return Grade{}, newRunError(KindGraderParseFailure, node, what, err)
		}
		return Grade{}, e.capabilityError(ctx, node, what, err)
	}

	grade, err := ParseGrade(out)
	if err != nil {
		return Grade{}, newRunError(KindGraderParseFailure, node, what, fmt.Errorf("%w: %v", err, out))
	}
	return grade, nil
}
