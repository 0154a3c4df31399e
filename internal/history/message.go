package history

import "github.com/google/uuid"

// Role tells who wrote a message.
type Role string

const (
	RoleUser     Role = "user"
	RoleOpponent Role = "opponent"
)

// Message is one line of a session's conversation.
type Message struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// UserMessage returns a new message written by the user.
func UserMessage(text string) Message {
	return Message{ID: "u-" + uuid.NewString(), Role: RoleUser, Text: text}
}

// OpponentMessage returns a new reply written by author.
func OpponentMessage(author, text string) Message {
	return Message{ID: "o-" + uuid.NewString(), Role: RoleOpponent, Author: author, Text: text}
}

// MessageRecord is a journaled message and the session it belongs to.
type MessageRecord struct {
	SessionID string
	Message
}
