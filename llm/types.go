package llm

// Message is one chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// CompletionRequest is the provider-neutral input of a completion.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int
}

// CompletionResponse is the provider-neutral output of a completion.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EmbeddingRequest asks for the embedding of one text.
type EmbeddingRequest struct {
	Model string
	Text  string
}
