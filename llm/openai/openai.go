// Package openai registers the "openai" dialect for OpenAI-compatible chat
// completion and embedding APIs.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/ragflow/llm"
)

const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

type Dialect struct{}

var _ llm.Dialect = Dialect{}

func (Dialect) Name() string          { return DialectName }
func (Dialect) ChatPath() string      { return "/v1/chat/completions" }
func (Dialect) EmbeddingPath() string { return "/v1/embeddings" }
func (Dialect) HealthPath() string    { return "/v1/models" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	msgs := make([]message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, message(m))
	}
	return chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (Dialect) BuildEmbeddingRequest(req llm.EmbeddingRequest) (any, error) {
	return embeddingRequest{Model: req.Model, Input: req.Text}, nil
}

func (Dialect) ParseEmbeddingResponse(body []byte) ([]float32, error) {
	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode embedding response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai: response has no embeddings")
	}
	return resp.Data[0].Embedding, nil
}
