package entity

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole is a closed enum; anything other than "user" or "bot" is
// rejected at the validation boundary before it reaches storage.
type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
	MessageRoleBot  MessageRole = "bot"
)

func ParseMessageRole(s string) (MessageRole, bool) {
	switch MessageRole(s) {
	case MessageRoleUser, MessageRoleBot:
		return MessageRole(s), true
	}
	return "", false
}

const DefaultChatTitle = "New chat"

type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	// Nil until the first message; afterwards always equals the CreatedAt
	// of the newest message in the chat.
	LastMessageAt *time.Time
}

type Message struct {
	Id     uuid.UUID
	ChatId uuid.UUID
	// Seq is assigned by the database sequence and breaks ordering ties
	// between messages sharing a CreatedAt.
	Seq       int64
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}
