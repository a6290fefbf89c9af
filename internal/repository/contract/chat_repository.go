package contract

import (
	"context"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error)
	FindIdsByUserId(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// AdvanceLastMessageAt moves last_message_at forward to ts. The update
	// is guarded so a racing append that already recorded a later message
	// can never be overwritten with an earlier timestamp.
	AdvanceLastMessageAt(ctx context.Context, chatId uuid.UUID, ts time.Time) error
}
