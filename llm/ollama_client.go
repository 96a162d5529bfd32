package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient talks to the server named by OLLAMA_HOST (default localhost:11434).
func NewOllamaClient(model string) (*OllamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}

	return &OllamaClient{client: client, model: model}, nil
}

func NewOllamaClientWith(client *api.Client, model string) *OllamaClient {
	return &OllamaClient{client: client, model: model}
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := newSettings(c.model, opts)

	chatMessages := make([]api.Message, 0, len(messages)+1)
	if settings.system != "" {
		chatMessages = append(chatMessages, api.Message{Role: "system", Content: settings.system})
	}
	for _, m := range messages {
		chatMessages = append(chatMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := settings.stream
	req := &api.ChatRequest{
		Model:     settings.model,
		Messages:  chatMessages,
		Stream:    &stream,
		KeepAlive: &api.Duration{Duration: 30 * time.Minute},
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	if settings.format == FormatJSON {
		req.Format = json.RawMessage(`"json"`)
	}

	// Non-streaming replies arrive in one response; streaming replies are forwarded chunk by chunk.
	var reply strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if stream {
			if resp.Message.Content == "" {
				return nil
			}
			return callback(resp.Message.Content)
		}
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return err
	}

	if stream {
		return nil
	}
	return callback(reply.String())
}
