package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/mapper"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateConstraintError(err)
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return translateConstraintError(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Chat{}).Error)
}

func (r *ChatRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return translateConstraintError(r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.Chat{}).Error)
}

func (r *ChatRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chat, error) {
	var m model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chat, error) {
	var models []*model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	chats := make([]*entity.Chat, len(models))
	for i, m := range models {
		chats[i] = r.mapper.ChatToEntity(m)
	}
	return chats, nil
}

func (r *ChatRepositoryImpl) FindIdsByUserId(ctx context.Context, userId uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("user_id = ?", userId).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ChatRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// AdvanceLastMessageAt serializes racing appends on the chat row: the row
// update takes a lock, and the monotonic guard means the later message
// always wins regardless of commit order.
func (r *ChatRepositoryImpl) AdvanceLastMessageAt(ctx context.Context, chatId uuid.UUID, ts time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ? AND (last_message_at IS NULL OR last_message_at <= ?)", chatId, ts).
		Update("last_message_at", ts).Error
}
