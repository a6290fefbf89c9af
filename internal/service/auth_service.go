package service

import (
	"context"
	"fmt"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/hasher"
	"ai-chat-be/internal/pkg/token"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IAuthService interface {
	// IssueToken exchanges username+password credentials for a token pair.
	IssueToken(ctx context.Context, username, password string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error

	// ResolvePrincipal verifies an access token and loads the user behind
	// it. A valid token whose user has since been deleted does not resolve.
	ResolvePrincipal(ctx context.Context, accessToken string) (*entity.User, error)
}

type authService struct {
	uowFactory     unitofwork.RepositoryFactory
	hasher         hasher.Hasher
	tokens         token.Signer
	eventPublisher EventPublisher
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, h hasher.Hasher, tokens token.Signer, eventPublisher EventPublisher) IAuthService {
	return &authService{
		uowFactory:     uowFactory,
		hasher:         h,
		tokens:         tokens,
		eventPublisher: eventPublisher,
	}
}

func (s *authService) IssueToken(ctx context.Context, username, password string) (*dto.TokenResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	// Same failure for unknown user and wrong password.
	if user == nil {
		return nil, apperror.Unauthenticated("incorrect username or password")
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("incorrect username or password")
	}

	accessToken, err := s.tokens.Issue(user.Id)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash := s.tokens.NewRefreshToken()
	refreshEntity := &entity.UserRefreshToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		TokenHash: refreshHash,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
		Revoked:   false,
		CreatedAt: time.Now(),
	}
	if err := uow.UserRepository().CreateRefreshToken(ctx, refreshEntity); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	publishEvent(ctx, s.eventPublisher, "USER_LOGIN", map[string]interface{}{
		"user_id": user.Id,
		"time":    time.Now().Format(time.RFC822),
	})

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "bearer",
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	tokenHash := token.HashRefreshToken(req.RefreshToken)
	stored, err := uow.UserRepository().FindRefreshToken(ctx, specification.ByTokenHash{TokenHash: tokenHash})
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}

	// The user may have been deleted since the token was issued.
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: stored.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}

	accessToken, err := s.tokens.Issue(user.Id)
	if err != nil {
		return nil, err
	}

	// Rotate: revoke the presented token, hand out a fresh one.
	rawRefresh, refreshHash := s.tokens.NewRefreshToken()
	next := &entity.UserRefreshToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		TokenHash: refreshHash,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTTL()),
		Revoked:   false,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().RevokeRefreshToken(ctx, stored.Id); err != nil {
		return nil, err
	}
	if err := uow.UserRepository().CreateRefreshToken(ctx, next); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "bearer",
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stored, err := uow.UserRepository().FindRefreshToken(ctx, specification.ByTokenHash{TokenHash: token.HashRefreshToken(refreshToken)})
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}
	return uow.UserRepository().RevokeRefreshToken(ctx, stored.Id)
}

func (s *authService) ResolvePrincipal(ctx context.Context, accessToken string) (*entity.User, error) {
	userId, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, "could not validate credentials", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthenticated("could not validate credentials")
	}
	return user, nil
}
