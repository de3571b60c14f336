package ask

import (
	"strings"

	"github.com/docq-dev/docq/internal/domain"
	"github.com/docq-dev/docq/internal/domain/chunk"
)

// FallbackSentence is the exact reply the model must give when the answer
// is not present in the supplied context.
const FallbackSentence = "I couldn't find that in the available documents."

// chunkDelimiter separates chunk contents inside the context block.
const chunkDelimiter = "\n\n---\n\n"

const groundedInstruction = `You are a document assistant. Answer the question using ONLY the context below.
Do not use outside knowledge and do not speculate beyond what is written.
If the answer is not present in the context, reply with exactly:
"` + FallbackSentence + `"

Context:
`

const noContextInstruction = `You are a document assistant. No relevant documents were found for this question.
Reply with exactly:
"` + FallbackSentence + `"
Do not attempt an answer from general knowledge.`

// buildMessages assembles the completion request: system instruction first,
// conversation history verbatim in original order, then the new question.
// Chunk contents are concatenated in retrieval order so the model sees the
// most relevant context first.
func buildMessages(hits []chunk.Hit, history []domain.Message, question string) []domain.Message {
	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: systemInstruction(hits),
	})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: question})
	return messages
}

func systemInstruction(hits []chunk.Hit) string {
	if len(hits) == 0 {
		return noContextInstruction
	}

	var b strings.Builder
	b.WriteString(groundedInstruction)
	for i := range hits {
		if i > 0 {
			b.WriteString(chunkDelimiter)
		}
		b.WriteString(hits[i].Content())
	}
	return b.String()
}
