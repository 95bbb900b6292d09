package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Client answers a question using the supplied document text.
type Client interface {
	Answer(ctx context.Context, input AnswerInput) (string, error)
}

// AnswerInput carries the stored document text and the user's question.
type AnswerInput struct {
	Context  string
	Question string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Answer returns ErrNotImplemented.
func (PlaceholderClient) Answer(ctx context.Context, input AnswerInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}

// EchoClient answers without a network call. It is meant for local runs and tests.
type EchoClient struct{}

// Answer repeats the question and the beginning of the context.
func (EchoClient) Answer(ctx context.Context, input AnswerInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Q: %s\nContext: %s", input.Question, TruncateRunes(input.Context, 200)), nil
}

// TruncateRunes keeps at most max runes of s. max <= 0 disables truncation.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == max {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
