package bootstrap

import (
	"chat-relay-be/internal/config"
	"chat-relay-be/internal/controller"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/pkg/serverutils"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/internal/service"
	"chat-relay-be/pkg/relay"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const authEventsTopic = "AUTH_EVENTS"

type Container struct {
	// Controllers
	AuthController controller.IAuthController
	ChatController controller.IChatController

	// Middleware
	AuthMiddleware fiber.Handler

	// Services exposed for main.go and the client session manager
	AuthService         service.IAuthService
	ConversationService service.IConversationService
	ConsumerService     service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.LogLevel, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	publisherService := service.NewPublisherService(authEventsTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, authEventsTopic, sysLogger)

	// 3. Services
	authService := service.NewAuthService(uowFactory, cfg.Auth.TokenTTL, publisherService)
	conversationService := service.NewConversationService(uowFactory)

	upstreamRelay := relay.New(cfg.Upstream, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController: controller.NewAuthController(authService),
		ChatController: controller.NewChatController(upstreamRelay),

		AuthMiddleware: serverutils.NewAuthMiddleware(authService),

		AuthService:         authService,
		ConversationService: conversationService,
		ConsumerService:     consumerService,

		Logger: sysLogger,
	}
}
