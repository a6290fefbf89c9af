package model

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId uuid.UUID `gorm:"type:uuid;not null;index"` // owner; fk_chats_user, see Migrate
	Title  string    `gorm:"type:varchar(160);not null;default:'New chat'"`
	// LastMessageAt stays NULL until the first message and is advanced in
	// the same transaction as each message insert.
	LastMessageAt *time.Time `gorm:"index"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
}

func (Chat) TableName() string {
	return "chats"
}

type Message struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId uuid.UUID `gorm:"type:uuid;not null;index"` // fk_messages_chat, see Migrate
	// Seq is a bigserial used to break created_at ties in insertion order.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex"`
	Role      string    `gorm:"type:varchar(10);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (Message) TableName() string {
	return "messages"
}
