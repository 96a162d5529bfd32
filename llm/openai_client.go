package llm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(model string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Error("OPENAI_API_KEY environment variable is not set")
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	return NewOpenAIClientWithConfig(openai.DefaultConfig(apiKey), model), nil
}

func NewOpenAIClientWithConfig(cfg openai.ClientConfig, model string) *OpenAIClient {
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := newSettings(c.model, opts)

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: settings.system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:               settings.model,
		Messages:            chatMessages,
		Temperature:         openAITemperature(settings.temperature),
		MaxCompletionTokens: settings.maxTokens,
	}

	if settings.format == FormatJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.Error("OpenAI API call failed", zap.String("model", settings.model), zap.Error(err))
		return fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	return callback(resp.Choices[0].Message.Content)
}

// openAITemperature keeps a zero temperature on the wire. The request field is omitempty, and an
// omitted temperature runs at the provider default of 1.
func openAITemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
