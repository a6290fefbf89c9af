package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	DeleteAllByChatId(ctx context.Context, chatId uuid.UUID) error
	DeleteAllByChatIds(ctx context.Context, chatIds []uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
