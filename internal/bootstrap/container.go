package bootstrap

import (
	"log"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/hasher"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/token"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/llm/factory"

	pktNats "ai-chat-be/pkg/nats"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	UserController controller.IUserController
	ChatController controller.IChatController

	// Exposed for the jwt middleware and graceful shutdown
	AuthService service.IAuthService
	Logger      logger.ILogger
	NatsPub     *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	passwordHasher := hasher.NewBcryptHasher()
	tokenManager := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMin, cfg.Auth.RefreshTokenTTLDays)

	// 2. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		// Event publishing is best-effort; the API works without it.
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.GroqAPIKey,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// 3. Services
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	authService := service.NewAuthService(uowFactory, passwordHasher, tokenManager, eventPublisher)
	userService := service.NewUserService(uowFactory, passwordHasher, eventPublisher)
	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		eventPublisher,
		sysLogger,
		time.Duration(cfg.Ai.CompletionTimeout)*time.Second,
	)

	// 4. Controllers
	return &Container{
		AuthController: controller.NewAuthController(authService),
		UserController: controller.NewUserController(userService),
		ChatController: controller.NewChatController(chatService),

		AuthService: authService,
		Logger:      sysLogger,
		NatsPub:     natsPub,
	}
}
