package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/ragflow/errors"
)

// InputSeparator joins the outputs of several upstream nodes.
const InputSeparator = "\n\n"

func handleQuery(_ context.Context, call Call) (string, error) {
	return call.Query, nil
}

func handleRetrieval(ctx context.Context, call Call) (string, error) {
	cfg, ok := call.Node.Config.(*RetrievalConfig)
	if !ok {
		return "", misconfigured(call.Node)
	}
	text := joinInputs(call.Inputs, nil)
	if text == "" {
		text = call.Query
	}

	passages, err := call.Retriever.Retrieve(ctx, cfg.Collection, text, cfg.TopK)
	switch {
	case stderrors.Is(err, ErrCollectionNotFound):
		return "", errors.NotFound("collection", cfg.Collection).WithCause(err)
	case err != nil:
		return "", err
	case len(passages) == 0:
		return "", errors.New(errors.ErrCodeNotFound,
			fmt.Sprintf("collection %q returned no passages", cfg.Collection), http.StatusNotFound)
	}
	return RenderPassages(passages), nil
}

func handleGeneration(ctx context.Context, call Call) (string, error) {
	cfg, ok := call.Node.Config.(*GenerationConfig)
	if !ok {
		return "", misconfigured(call.Node)
	}

	var retrieved string
	if cfg.ContextEnabled() {
		retrieved = joinInputs(call.Inputs, fromRetrieval)
	}
	question := joinInputs(call.Inputs, func(in Input) bool { return !fromRetrieval(in) })
	if question == "" {
		question = call.Query
	}

	prompt := BuildPrompt(cfg.CustomPrompt, question, retrieved)
	return call.Generator.Generate(ctx, prompt, cfg.Model, cfg.Temperature)
}

func handleOutput(_ context.Context, call Call) (string, error) {
	if len(call.Inputs) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("output node %q has no upstream input", call.Node.DisplayName()), http.StatusBadRequest)
	}
	return joinInputs(call.Inputs, nil), nil
}

// RenderPassages turns ranked passages into prompt context, best first.
func RenderPassages(passages []Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, InputSeparator)
}

func fromRetrieval(in Input) bool {
	return in.Capability == CapabilityRetrieval
}

// joinInputs concatenates the inputs accepted by keep (all when nil) in
// edge-declaration order.
func joinInputs(inputs []Input, keep func(Input) bool) string {
	texts := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if keep == nil || keep(in) {
			texts = append(texts, in.Text)
		}
	}
	return strings.Join(texts, InputSeparator)
}

func misconfigured(n Node) error {
	return errors.New(errors.ErrCodeInvalidInput,
		fmt.Sprintf("%s node %q has config of type %T", n.Kind, n.DisplayName(), n.Config), http.StatusBadRequest)
}
