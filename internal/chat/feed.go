// Package chat holds the message feed of the chat surface and the repliers
// that answer it.
package chat

import (
	"slices"
	"strings"

	"github.com/comigor/guruchat/internal/history"
)

// Mode is the temperament of replies.
type Mode string

const (
	Normal Mode = "normal"
	Spicy  Mode = "spicy"
)

// Toggle flips between normal and spicy.
func (m Mode) Toggle() Mode {
	if m == Spicy {
		return Normal
	}
	return Spicy
}

// Label is the mode toggle caption.
func (m Mode) Label() string {
	if m == Spicy {
		return "Spicy mode"
	}
	return "Normal mode"
}

// ParseMode maps a request string to a mode; anything but "spicy" is normal.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(Spicy)) {
		return Spicy
	}
	return Normal
}

// Role tells who wrote a message.
type Role = history.Role

const (
	RoleUser     = history.RoleUser
	RoleOpponent = history.RoleOpponent
)

// Message is one line of the feed. Sessions keep theirs in the history store.
type Message = history.Message

// Request is what a replier answers.
type Request struct {
	Mode     Mode
	Author   string
	Personas []string
	Content  string
	History  []Message
}

// Feed is the ordered list of chat messages on screen. It is not safe for
// concurrent use; the terminal UI owns it on its event loop.
type Feed struct {
	messages []Message
	record   func(Message)
}

func openers() []Message {
	return []Message{
		{ID: "m1", Role: RoleOpponent, Author: "Nakamoto", Text: "Trust no one. Verify the code."},
		{ID: "m2", Role: RoleOpponent, Author: "Nakamoto", Text: "What are you trying to figure out today?"},
	}
}

// NewFeed returns a feed opened by Nakamoto.
func NewFeed() *Feed {
	return &Feed{messages: openers()}
}

// OpenFeed returns a feed showing the opening lines followed by saved. Every
// message appended afterwards is passed to record, when non-nil.
func OpenFeed(saved []Message, record func(Message)) *Feed {
	return &Feed{messages: append(openers(), saved...), record: record}
}

func (f *Feed) add(m Message) {
	f.messages = append(f.messages, m)
	if f.record != nil {
		f.record(m)
	}
}

// Messages returns a copy of the feed.
func (f *Feed) Messages() []Message {
	return slices.Clone(f.messages)
}

// Send appends the user's text and returns the request for the reply. Blank
// text is ignored and reported with false.
func (f *Feed) Send(text string, mode Mode, author string, personas []string) (Request, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, false
	}
	prior := f.Messages()
	f.add(history.UserMessage(text))
	return Request{
		Mode:     mode,
		Author:   author,
		Personas: slices.Clone(personas),
		Content:  text,
		History:  prior,
	}, true
}

// Deliver appends a reply from author.
func (f *Feed) Deliver(author, text string) Message {
	m := history.OpponentMessage(author, text)
	f.add(m)
	return m
}
