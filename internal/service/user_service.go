package service

import (
	"context"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/hasher"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, page dto.PageQuery) ([]dto.UserResponse, error)

	// UpdateSelf replaces the credential set of callerId's own account.
	// targetId != callerId is rejected before any lookup.
	UpdateSelf(ctx context.Context, callerId, targetId uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error)

	// DeleteSelf removes the account and everything hanging off it:
	// messages, chats, refresh tokens, then the user row, in one
	// transaction.
	DeleteSelf(ctx context.Context, callerId, targetId uuid.UUID) error
}

type userService struct {
	uowFactory     unitofwork.RepositoryFactory
	hasher         hasher.Hasher
	eventPublisher EventPublisher
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, h hasher.Hasher, eventPublisher EventPublisher) IUserService {
	return &userService{
		uowFactory:     uowFactory,
		hasher:         h,
		eventPublisher: eventPublisher,
	}
}

func toUserResponse(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		Id:        user.Id,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func (s *userService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Username is checked before email so a request clashing on both
	// reports the username conflict.
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: req.Username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("username already exists")
	}

	existing, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// The pre-checks race with concurrent registrations; the unique
	// constraints are the real guard and surface as the same conflict.
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, "USER_REGISTERED", map[string]interface{}{
		"user_id":  user.Id,
		"username": user.Username,
	})

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) ListUsers(ctx context.Context, page dto.PageQuery) ([]dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	users, err := uow.UserRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at"},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		res = append(res, toUserResponse(user))
	}
	return res, nil
}

func (s *userService) UpdateSelf(ctx context.Context, callerId, targetId uuid.UUID, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if callerId != targetId {
		return nil, apperror.Forbidden("cannot modify another user")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: targetId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Email = req.Email
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()

	// Unique violations from a concurrent claim on the new username or
	// email come back as conflicts from the repository.
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) DeleteSelf(ctx context.Context, callerId, targetId uuid.UUID) error {
	if callerId != targetId {
		return apperror.Forbidden("cannot delete another user")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: targetId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	chatIds, err := uow.ChatRepository().FindIdsByUserId(ctx, targetId)
	if err != nil {
		return err
	}
	if len(chatIds) > 0 {
		if err := uow.MessageRepository().DeleteAllByChatIds(ctx, chatIds); err != nil {
			return err
		}
	}
	if err := uow.ChatRepository().DeleteAllByUserId(ctx, targetId); err != nil {
		return err
	}
	if err := uow.UserRepository().DeleteRefreshTokensByUserId(ctx, targetId); err != nil {
		return err
	}
	if err := uow.UserRepository().Delete(ctx, targetId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	publishEvent(ctx, s.eventPublisher, "USER_DELETED", map[string]interface{}{
		"user_id": targetId,
	})
	return nil
}
