package service

import (
	"strings"

	"docchat/internal/domain"
)

const contextDelimiter = "---------------------"

const answerInstruction = "Given the context information and not prior knowledge, " +
	"answer the question. If the answer is not in the context, " +
	"say 'I don't have enough information to answer this question.'"

// buildPrompt assembles the single prompt sent to the generative
// oracle: optional system instructions, the retrieved chunks delimited
// and attributed to their source files, and the question.
func buildPrompt(systemPrompt, query string, results domain.RetrievalResult) string {
	var b strings.Builder
	if systemPrompt != "" {
		b.WriteString(strings.TrimSpace(systemPrompt))
		b.WriteString("\n")
	}
	b.WriteString("Context information is below.\n")
	b.WriteString(contextDelimiter + "\n")
	for _, r := range results {
		b.WriteString("[source: " + r.Chunk.DocumentPath + "]\n")
		b.WriteString(strings.TrimSpace(r.Chunk.Text))
		b.WriteString("\n\n")
	}
	b.WriteString(contextDelimiter + "\n")
	b.WriteString(answerInstruction + "\n")
	b.WriteString("Question: " + query + "\n")
	b.WriteString("Answer: ")
	return b.String()
}
