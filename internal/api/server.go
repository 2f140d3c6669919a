package api

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/middleware"
	"github.com/fathima-sithara/chat-backend/internal/service"
	"github.com/fathima-sithara/chat-backend/internal/storage"
	"github.com/fathima-sithara/chat-backend/internal/ws"
)

func NewServer(
	svc *service.MessageService,
	store storage.Store,
	wsServer *ws.Server,
	tokens *auth.TokenManager,
	limiter *middleware.RateLimiter,
	logger *zap.SugaredLogger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: storage.MaxUploadSize + 1024*1024, // multipart overhead
	})
	app.Use(fiberlogger.New())

	h := NewHandlers(svc, store, logger)

	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	authd := app.Group("", tokens.Middleware())
	if limiter != nil {
		authd.Use(limiter.MiddlewareByKey(func(c *fiber.Ctx) string {
			return userID(c)
		}))
	}

	api := authd.Group("/api/messages")
	api.Get("/users", h.listPeers)
	api.Post("/send/:id", h.sendMessage)
	api.Post("/send-document/:id", h.sendDocument)
	api.Post("/mark-seen", h.markSeen)
	api.Get("/:id", h.getConversation)

	authd.Get("/download/document/:filename", h.downloadDocument)

	// push channel: auth middleware already verified the token and put
	// the user id in Locals before the upgrade
	authd.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	authd.Get("/ws", websocket.New(wsServer.Handle))

	return app
}
