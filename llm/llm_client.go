package llm

import (
	"context"
)

type LLMClient interface {
	// GenerateInference runs a single chat completion and hands the reply to callback.
	// Providers that do not stream call callback exactly once.
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	GetModel() string
}

type ResponseFormat string

const (
	FormatText ResponseFormat = ""
	FormatJSON ResponseFormat = "json"
)

type LLMSettings struct {
	model       string         // model name
	temperature float64        // randomness (0.0 to 1.0)
	maxTokens   int            // maximum tokens to generate
	system      string         // system prompt
	stream      bool           // whether to stream response
	format      ResponseFormat // structured output mode
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithLLMModel(model string) LLMOption {
	return func(s *LLMSettings) { s.model = model }
}

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithStreaming(stream bool) LLMOption {
	return func(s *LLMSettings) { s.stream = stream }
}

// WithJSONFormat asks the provider to constrain the reply to a single JSON object.
func WithJSONFormat() LLMOption {
	return func(s *LLMSettings) { s.format = FormatJSON }
}

func newSettings(model string, opts []LLMOption) LLMSettings {
	settings := LLMSettings{
		model:       model,
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // the message content
}

func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
