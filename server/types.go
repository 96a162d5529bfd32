package server

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
	Stream           bool          `json:"stream"`
	MaxRetries       *int          `json:"max_retries,omitempty"`
	WebSearchEnabled *bool         `json:"web_search_enabled,omitempty"`
}

type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// WorkflowSummary reports how the corrective-RAG run ended.
type WorkflowSummary struct {
	RunID         string   `json:"run_id"`
	Status        string   `json:"status"`
	LoopStep      int      `json:"loop_step"`
	DocumentCount int      `json:"document_count"`
	WebSearch     string   `json:"web_search"`
	Trace         []string `json:"trace"`
}

type ChatCompletionResponse struct {
	ID       string                 `json:"id"`
	Object   string                 `json:"object"`
	Created  int64                  `json:"created"`
	Model    string                 `json:"model"`
	Choices  []ChatCompletionChoice `json:"choices"`
	Usage    ChatCompletionUsage    `json:"usage"`
	Workflow WorkflowSummary        `json:"workflow"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
	RunID  string `json:"run_id,omitempty"`
}
