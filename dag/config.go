package dag

import (
	"github.com/kbukum/ragflow/validation"
)

// Bounds of node configuration values.
const (
	DefaultTopK = 5
	MinTopK     = 1
	MaxTopK     = 50

	MinTemperature = 0.0
	MaxTemperature = 1.0
)

// NodeConfig is the kind-specific configuration of a node. Check records
// every invalid field on v.
type NodeConfig interface {
	Check(v *validation.Validator)
}

// QueryConfig is empty; a query node only forwards the user query.
type QueryConfig struct{}

func (*QueryConfig) Check(*validation.Validator) {}

// OutputConfig is empty; an output node forwards its input.
type OutputConfig struct{}

func (*OutputConfig) Check(*validation.Validator) {}

// RetrievalConfig selects the collection to search and how many passages
// to return.
type RetrievalConfig struct {
	Collection string `json:"collection"`
	TopK       int    `json:"top_k"`
}

// NewRetrievalConfig returns a config with TopK preset to DefaultTopK, so a
// payload that omits top_k gets the default while an explicit 0 is rejected.
func NewRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{TopK: DefaultTopK}
}

func (c *RetrievalConfig) Check(v *validation.Validator) {
	v.Required("collection", c.Collection)
	v.Range("top_k", c.TopK, MinTopK, MaxTopK)
}

// GenerationConfig configures a language model call.
type GenerationConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	// UseRetrievedContext defaults to true when nil.
	UseRetrievedContext *bool `json:"use_retrieved_context,omitempty"`
	// CustomPrompt is either a template with {query} and {context}
	// placeholders or an instruction placed before the default prompt.
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

func NewGenerationConfig() *GenerationConfig {
	return &GenerationConfig{}
}

// ContextEnabled reports whether retrieval outputs are fed into the prompt.
func (c *GenerationConfig) ContextEnabled() bool {
	return c.UseRetrievedContext == nil || *c.UseRetrievedContext
}

func (c *GenerationConfig) Check(v *validation.Validator) {
	v.Required("model", c.Model)
	v.RangeFloat("temperature", c.Temperature, MinTemperature, MaxTemperature)
}
