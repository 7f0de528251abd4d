package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/docanswer/internal/answer"
	"github.com/ppiankov/docanswer/internal/model"
)

// SystemContextPrompt is the fixed instruction sent with every question
const SystemContextPrompt = "You are an expert research assistant. Answer ONLY using the provided document context. " +
	"If information is not present in the documents, say you couldn't find it. " +
	"Every factual claim must include a bracketed citation like [filename.pdf, p.3]."

// BuildPrompt renders the user turn: rules, format instructions, retrieved context and the question.
// Each chunk is labelled with the same bracket form the model is asked to cite.
func BuildPrompt(question string, chunks []model.RetrievedChunk) string {
	var b strings.Builder

	b.WriteString("IMPORTANT (do not change):\n")
	b.WriteString("- Use ONLY the provided context below. Do not invent facts.\n")
	b.WriteString("- For every factual claim include a bracketed citation like: [filename.pdf, p.3]\n")
	b.WriteString("- Return the final output EXACTLY in the JSON format described by the format instructions below.\n\n")
	b.WriteString(answer.FormatInstructions())
	b.WriteString("\n- If you cannot find the answer in the context, say so.\n")

	b.WriteString("\n\nContext:\n")
	if len(chunks) == 0 {
		b.WriteString("(no matching documents)\n")
	}
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(chunkLabel(c))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(c.Content))
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer (JSON):")

	return b.String()
}

func chunkLabel(c model.RetrievedChunk) string {
	if c.Page == nil {
		return fmt.Sprintf("[%s]", c.Source)
	}
	return fmt.Sprintf("[%s, p.%d]", c.Source, *c.Page)
}
