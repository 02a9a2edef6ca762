package ollama

import (
	"fmt"
	"strings"
)

// promptTemplate is the fixed augmented-prompt layout: context block,
// then the literal question, then answer directives.
const promptTemplate = `Based on the following context, please answer the question:

Context:
%s

Question: %s

Please provide a comprehensive answer based on the context provided above.`

// BuildPrompt combines assembled context, the question and optional
// language/instruction directives into the augmented prompt.
func BuildPrompt(contextText, question, language, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptTemplate, contextText, question)

	if language != "" && !strings.EqualFold(language, "auto") {
		fmt.Fprintf(&b, "\nRespond in %s.", language)
	}
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		b.WriteString("\n")
		b.WriteString(instructions)
	}

	return b.String()
}
