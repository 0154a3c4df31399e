package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/guruchat/internal/config"
	"github.com/comigor/guruchat/internal/llm"
	"github.com/comigor/guruchat/internal/logger"
)

var ErrEmptyReply = errors.New("chat: model returned no reply")

// Replier answers a chat request.
type Replier interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// CannedReplier answers with a fixed line per mode.
type CannedReplier struct{}

// Reply returns the canned line for req.Mode.
func (CannedReplier) Reply(_ context.Context, req Request) (string, error) {
	if req.Mode == Spicy {
		return "Bold take incoming. Ready?", nil
	}
	return "Let me think that through with you.", nil
}

const defaultSystemPrompt = "You are a master thinker taking part in a chat with a curious user. Stay in character and answer in a few sentences."

// LLMReplier answers through an OpenAI-compatible chat completion.
type LLMReplier struct {
	client       llm.Client
	model        string
	systemPrompt string
}

// NewLLMReplier returns a replier calling model through client. An empty
// systemPrompt uses the built-in one.
func NewLLMReplier(client llm.Client, model, systemPrompt string) *LLMReplier {
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &LLMReplier{client: client, model: model, systemPrompt: systemPrompt}
}

// temperament mirrors the hot/cold styles of the persona prompts.
func temperament(m Mode) string {
	if m == Spicy {
		return "hot: bold, provocative and opinionated"
	}
	return "cold: calm, measured and analytical"
}

func (r *LLMReplier) buildMessages(req Request) []openai.ChatCompletionMessage {
	var sys strings.Builder
	sys.WriteString(r.systemPrompt)
	if req.Author != "" {
		fmt.Fprintf(&sys, "\n\nYou are %s.", req.Author)
	}
	if others := otherPersonas(req.Personas, req.Author); len(others) > 0 {
		fmt.Fprintf(&sys, " Also in the room: %s.", strings.Join(others, ", "))
	}
	fmt.Fprintf(&sys, "\nTemperament: %s.", temperament(req.Mode))

	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: sys.String()}}
	for _, m := range req.History {
		if m.Role == RoleUser {
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
			continue
		}
		content := m.Text
		if m.Author != "" {
			content = m.Author + ": " + m.Text
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Content})
}

func otherPersonas(names []string, author string) []string {
	var out []string
	for _, n := range names {
		if n != author {
			out = append(out, n)
		}
	}
	return out
}

// Reply asks the model for the next line of the conversation in req.
func (r *LLMReplier) Reply(ctx context.Context, req Request) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: r.buildMessages(req),
	})
	if err != nil {
		logger.L.Error("LLM call failed", "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ReplyText runs r and turns a failure into the text shown in the feed.
func ReplyText(ctx context.Context, r Replier, req Request) string {
	text, err := r.Reply(ctx, req)
	if err != nil {
		return fmt.Sprintf("System Error: %v", err)
	}
	return text
}

// FromConfig returns an LLM replier when an API key is configured and the
// canned replier otherwise.
func FromConfig(cfg config.LLMConfig) Replier {
	if cfg.APIKey == "" {
		logger.L.Info("no LLM api key configured; using canned replies")
		return CannedReplier{}
	}
	return NewLLMReplier(llm.NewClient(cfg), cfg.Model, cfg.SystemPrompt)
}

// Author picks who answers: the first picked persona, else fallback.
func Author(personas []string, fallback string) string {
	if len(personas) > 0 {
		return personas[0]
	}
	return fallback
}
