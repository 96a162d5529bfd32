package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/crag-boot/llm"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// LLMInference serves both the free-text and the JSON-mode calls the workflow makes.
// Every call runs at temperature 0.
type LLMInference struct {
	client    llm.LLMClient
	maxTokens int
}

func NewLLMInference(client llm.LLMClient, maxTokens int) *LLMInference {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &LLMInference{client: client, maxTokens: maxTokens}
}

func (i *LLMInference) CompleteFree(ctx context.Context, prompt string) (string, error) {
	var reply strings.Builder
	err := i.client.GenerateInference(
		ctx,
		[]llm.Message{llm.UserMessage(prompt)},
		func(chunk string) error {
			reply.WriteString(chunk)
			return nil
		},
		llm.WithTemperature(0),
		llm.WithMaxTokens(i.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("free inference with %s: %w", i.client.GetModel(), err)
	}

	return reply.String(), nil
}

func (i *LLMInference) CompleteStructured(ctx context.Context, systemInstruction, userPrompt string) (map[string]any, error) {
	var reply strings.Builder
	err := i.client.GenerateInference(
		ctx,
		[]llm.Message{llm.UserMessage(userPrompt)},
		func(chunk string) error {
			reply.WriteString(chunk)
			return nil
		},
		llm.WithTemperature(0),
		llm.WithMaxTokens(i.maxTokens),
		llm.WithSystemPrompt(systemInstruction),
		llm.WithJSONFormat(),
	)
	if err != nil {
		return nil, fmt.Errorf("structured inference with %s: %w", i.client.GetModel(), err)
	}

	out, err := DecodeObject(reply.String())
	if err != nil {
		logger.Error("Structured reply is not a JSON object",
			zap.String("model", i.client.GetModel()),
			zap.String("reply", reply.String()),
			zap.Error(err))
		return nil, err
	}
	return out, nil
}

// DecodeObject parses a model reply as one JSON object, tolerating a surrounding markdown fence.
func DecodeObject(reply string) (map[string]any, error) {
	body := strings.TrimSpace(reply)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		body = strings.TrimSpace(body)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrMalformedOutput, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: reply is null", workflow.ErrMalformedOutput)
	}
	return out, nil
}
