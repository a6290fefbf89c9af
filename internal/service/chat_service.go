package service

import (
	"context"
	"strings"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/llm"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateChat(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	ListChats(ctx context.Context, userId uuid.UUID, page dto.PageQuery) ([]dto.ChatResponse, error)
	GetChat(ctx context.Context, userId, chatId uuid.UUID) (*dto.ChatDetailResponse, error)
	DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error

	// AppendMessage stores a message in the owner's chat. A "user" message
	// additionally triggers a model completion whose reply is appended as a
	// "bot" message; completion failure never affects the stored message.
	AppendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.AppendMessageRequest) (*dto.MessageResponse, error)
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	llmProvider       llm.LLMProvider
	eventPublisher    EventPublisher
	logger            logger.ILogger
	completionTimeout time.Duration
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, llmProvider llm.LLMProvider, eventPublisher EventPublisher, log logger.ILogger, completionTimeout time.Duration) IChatService {
	return &chatService{
		uowFactory:        uowFactory,
		llmProvider:       llmProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
		completionTimeout: completionTimeout,
	}
}

func toChatResponse(chat *entity.Chat) dto.ChatResponse {
	return dto.ChatResponse{
		Id:            chat.Id,
		Title:         chat.Title,
		CreatedAt:     chat.CreatedAt,
		LastMessageAt: chat.LastMessageAt,
	}
}

func toMessageResponse(msg *entity.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:        msg.Id,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// resolveChatForOwner is the single ownership checkpoint. A chat that does
// not exist and a chat owned by someone else are indistinguishable to the
// caller.
func (s *chatService) resolveChatForOwner(ctx context.Context, uow unitofwork.UnitOfWork, userId, chatId uuid.UUID) (*entity.Chat, error) {
	chat, err := uow.ChatRepository().FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.ChatOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NotFound("chat not found")
	}
	return chat, nil
}

func (s *chatService) CreateChat(ctx context.Context, userId uuid.UUID, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = entity.DefaultChatTitle
	}

	chat := &entity.Chat{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, "CHAT_CREATED", map[string]interface{}{
		"chat_id": chat.Id,
		"user_id": userId,
		"title":   chat.Title,
	})

	res := toChatResponse(chat)
	return &res, nil
}

func (s *chatService) ListChats(ctx context.Context, userId uuid.UUID, page dto.PageQuery) ([]dto.ChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.ChatOwnedBy{UserID: userId},
		specification.OrderByActivity{},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.ChatResponse, 0, len(chats))
	for _, chat := range chats {
		res = append(res, toChatResponse(chat))
	}
	return res, nil
}

func (s *chatService) GetChat(ctx context.Context, userId, chatId uuid.UUID) (*dto.ChatDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := s.resolveChatForOwner(ctx, uow, userId, chatId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chat.Id},
		specification.OrderByInsertion{},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.ChatDetailResponse{
		Id:            chat.Id,
		Title:         chat.Title,
		CreatedAt:     chat.CreatedAt,
		LastMessageAt: chat.LastMessageAt,
		Messages:      make([]dto.MessageResponse, 0, len(messages)),
	}
	for _, msg := range messages {
		res.Messages = append(res.Messages, toMessageResponse(msg))
	}
	return res, nil
}

func (s *chatService) DeleteChat(ctx context.Context, userId, chatId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chat, err := s.resolveChatForOwner(ctx, uow, userId, chatId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteAllByChatId(ctx, chat.Id); err != nil {
		return err
	}
	if err := uow.ChatRepository().Delete(ctx, chat.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) AppendMessage(ctx context.Context, userId, chatId uuid.UUID, req *dto.AppendMessageRequest) (*dto.MessageResponse, error) {
	role, ok := entity.ParseMessageRole(req.Role)
	if !ok {
		return nil, apperror.Validation("role must be 'user' or 'bot'")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := s.resolveChatForOwner(ctx, uow, userId, chatId)
	if err != nil {
		return nil, err
	}

	msg, err := s.storeMessage(ctx, uow, chat.Id, role, req.Content)
	if err != nil {
		return nil, err
	}

	// Only a user turn asks the model for a reply. The user message is
	// already committed, so a failing completion leaves it in place.
	if role == entity.MessageRoleUser {
		s.appendBotReply(chat.Id)
	}

	res := toMessageResponse(msg)
	return &res, nil
}

// storeMessage inserts the message and advances the chat's activity marker
// in one transaction.
func (s *chatService) storeMessage(ctx context.Context, uow unitofwork.UnitOfWork, chatId uuid.UUID, role entity.MessageRole, content string) (*entity.Message, error) {
	msg := &entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := uow.ChatRepository().AdvanceLastMessageAt(ctx, chatId, msg.CreatedAt); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, "MESSAGE_APPENDED", map[string]interface{}{
		"chat_id":    chatId,
		"message_id": msg.Id,
		"role":       string(role),
	})
	return msg, nil
}

// appendBotReply runs the completion on its own deadline, detached from
// the request context, and stores the reply. Errors are logged only.
func (s *chatService) appendBotReply(chatId uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), s.completionTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)

	history, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderByInsertion{},
	)
	if err != nil {
		s.logger.Error("ChatService", "failed to load history for completion", map[string]interface{}{
			"chat_id": chatId,
			"error":   err.Error(),
		})
		return
	}

	llmHistory := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		llmHistory = append(llmHistory, llm.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	reply, err := s.llmProvider.Chat(ctx, llmHistory)
	if err != nil {
		s.logger.Error("ChatService", "completion failed", map[string]interface{}{
			"chat_id": chatId,
			"error":   err.Error(),
		})
		return
	}

	if _, err := s.storeMessage(ctx, uow, chatId, entity.MessageRoleBot, reply); err != nil {
		s.logger.Error("ChatService", "failed to store bot reply", map[string]interface{}{
			"chat_id": chatId,
			"error":   err.Error(),
		})
	}
}
