package openai

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"docchat-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const systemPrompt = "You answer questions about the user's uploaded documents. " +
	"Use only the document text provided. If the answer is not in the text, say you could not find it."

// BuildPrompt creates the chat messages for one question. Context longer than
// maxContextChars runes is cut from the end.
func BuildPrompt(input llm.AnswerInput, maxContextChars int) []Message {
	doc := llm.TruncateRunes(input.Context, maxContextChars)
	var user strings.Builder
	user.WriteString("Document text:\n")
	user.WriteString(doc)
	user.WriteString("\n\nQuestion: ")
	user.WriteString(strings.TrimSpace(input.Question))
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user.String()},
	}
}

func promptStringFromMessages(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func hashPromptString(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
