package answer

import "strings"

const contextSeparator = "\n\n---\n"

// buildPrompt frames the question so the model answers only from the
// retrieved chunks and admits when they are not enough.
func buildPrompt(question string, contexts []string) string {
	var sb strings.Builder
	sb.WriteString("Answer the question ONLY using the provided context. ")
	sb.WriteString("If the answer is not in the context, say you don't have enough information.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(contexts, contextSeparator))
	return sb.String()
}
