package dag

import "strings"

// Prompt templates. {context} and {query} are the only placeholders.
const (
	ContextPromptTemplate = "Use the following context to answer the question:\n\n{context}\n\nQuestion: {query}"
	placeholderQuery      = "{query}"
	placeholderContext    = "{context}"
)

// BuildPrompt composes the prompt of a generation node.
//
// A custom prompt containing a placeholder is used as the template. Any
// other custom prompt is an instruction and precedes the default
// composition. The default composition is ContextPromptTemplate when there
// is context and the bare question otherwise.
func BuildPrompt(custom, question, retrieved string) string {
	fill := strings.NewReplacer(placeholderQuery, question, placeholderContext, retrieved)
	custom = strings.TrimSpace(custom)

	if strings.Contains(custom, placeholderQuery) || strings.Contains(custom, placeholderContext) {
		return fill.Replace(custom)
	}

	base := question
	if retrieved != "" {
		base = fill.Replace(ContextPromptTemplate)
	}
	if custom == "" {
		return base
	}
	return custom + "\n\n" + base
}
