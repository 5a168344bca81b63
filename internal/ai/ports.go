package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the remote chat-completion API.
type Completer interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// Reply is the outcome of one chat exchange. When Fallback is set, Text is
// the fixed apology and Cause holds the remote failure that was absorbed.
type Reply struct {
	Text     string
	Fallback bool
	Cause    error
}
