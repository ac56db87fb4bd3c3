// Package ollama registers the "ollama" dialect for Ollama's native API.
package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/ragflow/llm"
)

// DialectName is the name the dialect registers under.
const DialectName = "ollama"

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Dialect maps requests to /api/chat and /api/embeddings.
type Dialect struct{}

var _ llm.Dialect = Dialect{}

func (Dialect) Name() string          { return DialectName }
func (Dialect) ChatPath() string      { return "/api/chat" }
func (Dialect) EmbeddingPath() string { return "/api/embeddings" }
func (Dialect) HealthPath() string    { return "/api/tags" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// BuildRequest always disables streaming; the adapter needs the whole
// answer before the node can finish. Temperature is sent even when zero.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	msgs := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	return chatRequest{
		Model:    req.Model,
		Messages: msgs,
		Options:  options{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}, nil
}

func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode chat response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}
	return &llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (Dialect) BuildEmbeddingRequest(req llm.EmbeddingRequest) (any, error) {
	return embeddingRequest{Model: req.Model, Prompt: req.Text}, nil
}

func (Dialect) ParseEmbeddingResponse(body []byte) ([]float32, error) {
	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode embedding response: %w", err)
	}
	return resp.Embedding, nil
}
