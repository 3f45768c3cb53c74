package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"trailbook/internal/config"
	"trailbook/internal/handlers/chatserver"
	"trailbook/internal/queue"
	appRedis "trailbook/internal/redis"
	"trailbook/internal/services"
	"trailbook/internal/storage"
	ws "trailbook/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithField("version", cfg.AppVersion).Info("starting chat server")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Fatalf("failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	userRepo := storage.NewGormUserRepository(db)
	requestRepo := storage.NewGormConnectionRequestRepository(db)
	messageRepo := storage.NewGormChatMessageRepository(db)

	producer, err := queue.NewProducer(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("failed to create queue producer: %v", err)
	}
	defer producer.Close()
	dispatcher := queue.NewDispatcher(producer, cfg.Queue)

	messageService := services.NewMessageService(messageRepo, requestRepo, userRepo, dispatcher, logger)

	hub := ws.NewHub(logger)
	go hub.Run()

	wsHandler := chatserver.NewWebSocketHandler(hub, messageService, tokenBlacklist, cfg, logger)

	r := mux.NewRouter()
	r.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("chat server listening on %s%s", serverAddr, cfg.Server.WebSocketPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("chat server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, stopping chat server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("chat server forced to shut down: %v", err)
	}
	logger.Info("chat server stopped")
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
