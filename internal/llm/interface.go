package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Client is the chat completion call the replier makes, satisfied by
// *openai.Client and by test fakes.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}
