package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatOwnedBy struct {
	UserID uuid.UUID
}

func (s ChatOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByChatID struct {
	ChatID uuid.UUID
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

// OrderByActivity sorts chats most-recent-activity first; never-messaged
// chats (NULL last_message_at) sort after all messaged ones.
type OrderByActivity struct{}

func (s OrderByActivity) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("last_message_at DESC NULLS LAST").Order("created_at DESC")
}

// OrderByInsertion sorts messages oldest first, created_at ties broken by
// the insertion sequence.
type OrderByInsertion struct{}

func (s OrderByInsertion) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("seq ASC")
}
