package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/chat-backend/internal/api"
	"github.com/fathima-sithara/chat-backend/internal/auth"
	"github.com/fathima-sithara/chat-backend/internal/config"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/logger"
	"github.com/fathima-sithara/chat-backend/internal/middleware"
	"github.com/fathima-sithara/chat-backend/internal/presence"
	"github.com/fathima-sithara/chat-backend/internal/repository"
	"github.com/fathima-sithara/chat-backend/internal/service"
	"github.com/fathima-sithara/chat-backend/internal/storage"
	"github.com/fathima-sithara/chat-backend/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	var (
		msgRepo  repository.MessageRepository
		userRepo repository.UserRepository
	)
	if cfg.Mongo.URI != "" {
		client, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
		if err != nil {
			zl.Fatalw("mongo connect", "err", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		db := client.Database(cfg.Mongo.Database)
		msgRepo = repository.NewMongoMessageRepository(db.Collection("messages"))
		userRepo = repository.NewMongoUserRepository(db.Collection("users"))
		zl.Infow("message store", "backend", "mongodb", "database", cfg.Mongo.Database)
	} else {
		msgRepo = repository.NewMemoryMessageRepository()
		userRepo = repository.NewMemoryUserRepository()
		zl.Warn("no mongodb uri configured, using in-memory store")
	}

	var limiter *middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = middleware.NewRateLimiter(rdb, "chat:rl", cfg.RateLimit.Limit, cfg.RateWindow)
	}

	var pub *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicCreated, cfg.Kafka.TopicSeen, zl)
		defer func() { _ = pub.Close() }()
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Store(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
	default:
		store, err = storage.NewLocalStore(cfg.Storage.UploadDir)
	}
	if err != nil {
		zl.Fatalw("storage init", "backend", cfg.Storage.Backend, "err", err)
	}

	registry := presence.NewRegistry()
	router := ws.NewRouter(registry, zl)
	wsServer := ws.NewServer(registry, cfg, zl)

	svc := service.NewMessageService(msgRepo, userRepo, router, pub, zl)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL)

	app := api.NewServer(svc, store, wsServer, tokens, limiter, zl)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		zl.Infow("server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			zl.Fatalw("server listen", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	zl.Info("server stopped")
}
