package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"trailbook/internal/chattypes"
	"trailbook/internal/config"
	"trailbook/internal/handlers/apiserver"
	"trailbook/internal/middleware"
	"trailbook/internal/push"
	"trailbook/internal/queue"
	queueHandlers "trailbook/internal/queue/handlers"
	appRedis "trailbook/internal/redis"
	"trailbook/internal/services"
	"trailbook/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.WithField("version", cfg.AppVersion).Info("starting API server")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		logger.Fatalf("failed to migrate database tables: %v", err)
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
	albumRepo := storage.NewGormAlbumRepository(db)
	edgeRepo := storage.NewGormEdgeRepository(db)
	requestRepo := storage.NewGormConnectionRequestRepository(db)
	connectionRepo := storage.NewGormTrailConnectionRepository(db)
	messageRepo := storage.NewGormChatMessageRepository(db)

	producer, err := queue.NewProducer(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("failed to create queue producer: %v", err)
	}
	defer producer.Close()
	dispatcher := queue.NewDispatcher(producer, cfg.Queue)

	var objectStore chattypes.ObjectStore
	switch cfg.Storage.Type {
	case "local":
		objectStore, err = storage.NewLocalObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatalf("failed to initialize local object store: %v", err)
		}
	default:
		logger.Fatalf("unsupported storage type: %s", cfg.Storage.Type)
	}

	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg.Auth, logger)
	userService := services.NewUserService(userRepo)
	albumService := services.NewAlbumService(albumRepo, edgeRepo, logger)
	eligibilityService := services.NewEligibilityService(edgeRepo, albumRepo)
	requestService := services.NewConnectionRequestService(requestRepo, userRepo, logger)
	connectionService := services.NewTrailConnectionService(connectionRepo, eligibilityService, logger)
	messageService := services.NewMessageService(messageRepo, requestRepo, userRepo, dispatcher, logger)

	authHandler := apiserver.NewAuthHandler(authService)
	userHandler := apiserver.NewUserHandler(userService)
	albumHandler := apiserver.NewAlbumHandler(albumService)
	requestHandler := apiserver.NewConnectionRequestHandler(requestService)
	connectionHandler := apiserver.NewTrailConnectionHandler(connectionService)
	messageHandler := apiserver.NewMessageHandler(messageService)
	uploadHandler := apiserver.NewUploadHandler(objectStore, cfg.Storage, logger)

	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.RegisterHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.LoginHandler).Methods(http.MethodPost)

	authMW := func(next http.Handler) http.Handler {
		return middleware.AuthMiddleware(next, cfg.Auth, tokenBlacklist)
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me/push-token", userHandler.SetPushTokenHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/{userId:[0-9]+}", userHandler.GetUserProfileHandler).Methods(http.MethodGet)

	apiRouter.HandleFunc("/albums", albumHandler.CreateAlbumHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/albums/mine", albumHandler.ListMyAlbumsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/albums/{albumId:[0-9]+}", albumHandler.GetAlbumHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/albums/{albumId:[0-9]+}", albumHandler.DeleteAlbumHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/albums/{albumId:[0-9]+}/media", albumHandler.AddMediaHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/media/{mediaId:[0-9]+}", albumHandler.DeleteMediaHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/albums/{albumId:[0-9]+}/favorite", albumHandler.FavoriteHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/albums/{albumId:[0-9]+}/favorite", albumHandler.UnfavoriteHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/media/{mediaId:[0-9]+}/reflections", albumHandler.ReflectHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/reflections/{reflectionId:[0-9]+}", albumHandler.DeleteReflectionHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/connection-requests/send/{userId:[0-9]+}", requestHandler.SendHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/connection-requests/{decision:accept|reject}/{requestId:[0-9]+}", requestHandler.RespondHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/connection-requests/{status:pending|accepted|rejected|connected}", requestHandler.ListHandler).Methods(http.MethodGet)

	apiRouter.HandleFunc("/trail-connections/check-eligibility/{userId:[0-9]+}", connectionHandler.CheckEligibilityHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trail-connections/connect/{userId:[0-9]+}", connectionHandler.ConnectHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/trail-connections/reevaluate/{userId:[0-9]+}", connectionHandler.ReevaluateHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/trail-connections/walked-together", connectionHandler.ListHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trail-connections/with/{userId:[0-9]+}", connectionHandler.GetWithHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/trail-connections/with/{userId:[0-9]+}", connectionHandler.DeactivateHandler).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/messages/send", messageHandler.SendHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/messages/with/{otherUserId:[0-9]+}", messageHandler.GetMessagesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/messages/conversations", messageHandler.GetConversationsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/messages/unread-count", messageHandler.GetUnreadCountHandler).Methods(http.MethodGet)

	apiRouter.HandleFunc("/upload", uploadHandler.UploadFileHandler).Methods(http.MethodPost)

	// Serve locally stored uploads.
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(cfg.Storage.BaseURL, "/") + "/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))
	}

	// Queue consumers run in-process alongside the API. They are independent
	// of each other: one consumer per topic, each with its own group.
	pushSender := push.NewLogSender(logger)
	retryPolicy := queue.NewRetryPolicy(producer, logger)
	fileHandler := queueHandlers.NewFileAttachHandler(messageRepo, objectStore, logger)
	notifyHandler := queueHandlers.NewNotificationHandler(userRepo, pushSender, logger)

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	fileConsumer := queue.NewConsumer(cfg.Queue, logger)
	defer fileConsumer.Close()
	go func() {
		wrapped := retryPolicy.Wrap(cfg.Queue.FileUploadTopic, cfg.Queue.FileUploadDLQ(), fileHandler.Handle)
		err := fileConsumer.Consume(consumerCtx, []string{cfg.Queue.FileUploadTopic}, cfg.Queue.FileConsumerGroup, wrapped)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("file-upload consumer stopped")
		}
	}()

	notifyConsumer := queue.NewConsumer(cfg.Queue, logger)
	defer notifyConsumer.Close()
	go func() {
		wrapped := retryPolicy.Wrap(cfg.Queue.NotifyTopic, cfg.Queue.NotifyDLQ(), notifyHandler.Handle)
		err := notifyConsumer.Consume(consumerCtx, []string{cfg.Queue.NotifyTopic}, cfg.Queue.NotifyConsumerGroup, wrapped)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("notify consumer stopped")
		}
	}()

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handlers.CORS(corsOptions...)(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received, stopping API server")

	cancelConsumers()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("API server forced to shut down: %v", err)
	}
	logger.Info("API server stopped")
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
