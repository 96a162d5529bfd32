package llm

import "fmt"

// NewClient builds the client for a configured provider name.
func NewClient(provider, model string) (LLMClient, error) {
	var (
		client LLMClient
		err    error
	)

	switch provider {
	case "", "ollama":
		var c *OllamaClient
		if c, err = NewOllamaClient(model); err == nil {
			client = c
		}
	case "groq":
		var c *GroqClient
		if c, err = NewGroqClient(model); err == nil {
			client = c
		}
	case "anthropic":
		var c *AnthropicClient
		if c, err = NewAnthropicClient(model); err == nil {
			client = c
		}
	case "openai":
		var c *OpenAIClient
		if c, err = NewOpenAIClient(model); err == nil {
			client = c
		}
	default:
		err = fmt.Errorf("unknown llm provider %q", provider)
	}

	if err != nil {
		return nil, err
	}
	return client, nil
}
