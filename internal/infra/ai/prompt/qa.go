package prompt

import (
	"fmt"
	"strings"

	"github.com/codeiq-dev/codeiq/internal/domain/ai"
)

// AnswerSystemPrompt grounds the model on retrieved chunks only.
func AnswerSystemPrompt() string {
	return `You are an expert code analysis assistant. Answer the user's question using only the code snippets provided as context. Reference the source files by path when relevant and include concrete improvement suggestions where they apply. If the context does not contain the answer, say so.`
}

// AnswerUserPrompt builds the augmented prompt: retrieved chunks with source
// attribution, then the question.
func AnswerUserPrompt(question string, chunks []ai.ContextChunk) string {
	var b strings.Builder
	b.WriteString("CODEBASE CONTEXT:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "\nFile: %s\n%s\n", c.FilePath, c.Text)
	}
	b.WriteString("\nUSER QUESTION: " + question + "\n")
	return b.String()
}
