package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Title string `json:"title" validate:"max=160"`
}

type ChatResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

type AppendMessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=user bot"`
	Content string `json:"content" validate:"required"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatDetailResponse struct {
	Id            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	CreatedAt     time.Time         `json:"created_at"`
	LastMessageAt *time.Time        `json:"last_message_at"`
	Messages      []MessageResponse `json:"messages"`
}
