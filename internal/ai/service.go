// Package ai turns a transcript into a short spoken-style reply.
package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	FallbackReply = "I'm sorry, I couldn't process your request right now."

	briefSuffix = " (Respond briefly in 2-3 sentences)"
)

var errEmptyContent = errors.New("completion content is empty")

type Service struct {
	client Completer
	log    *zap.SugaredLogger
}

func NewService(client Completer, log *zap.SugaredLogger) *Service {
	return &Service{
		client: client,
		log:    log,
	}
}

// Reply never fails: any remote problem yields the fallback variant.
func (s *Service) Reply(ctx context.Context, transcript string) Reply {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: transcript + briefSuffix},
	}

	content, err := s.client.GetCompletion(ctx, messages)
	if err == nil {
		content = strings.TrimSpace(content)
		if content == "" {
			err = errEmptyContent
		}
	}
	if err != nil {
		s.log.Warnf("[ai] chat failed, using fallback: %s", describeError(err))
		return Reply{Text: FallbackReply, Fallback: true, Cause: err}
	}

	return Reply{Text: content}
}

func describeError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return "invalid API key: " + err.Error()
		case 404:
			return "model not found: " + err.Error()
		case 429:
			return "rate limited: " + err.Error()
		}
	}
	return err.Error()
}
