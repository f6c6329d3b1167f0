package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/config"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/database"
	"github.com/yukikurage/mini-trello-api/internal/handlers"
	"github.com/yukikurage/mini-trello-api/internal/mail"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
	"github.com/yukikurage/mini-trello-api/internal/repository"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

func main() {
	logger := logrus.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, cfg)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer rdb.Close()
	}

	// Realtime hub, shared across instances through Redis when configured
	hub := realtime.NewHub(logger, constants.RealtimeBufferSize)
	if cfg.RealtimeBackend == "redis" {
		bridge := realtime.NewRedisBridge(rdb, cfg.RealtimeChannel, logger)
		hub.UseBridge(bridge)
		go bridge.Run(ctx, func(ev realtime.Event) {
			hub.Deliver(ev)
		})
	}

	// Mail goes to the log when no SMTP server is configured
	var sender mail.Sender = &mail.LogSender{Logger: logger}
	if cfg.SMTPHost != "" {
		sender = &mail.SMTP{
			Server:   cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	}
	mailer := mail.NewMailer(sender, cfg.FrontendURL)

	// Initialize AI service
	var generator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		generator = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	cardRepo := repository.NewCardRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	invRepo := repository.NewInvitationRepository(db)

	authService := services.NewAuthService(userRepo, mailer, logger, services.AuthConfig{
		CodeTTL:    cfg.VerificationCodeTTL,
		BcryptCost: cfg.BcryptCost,
		JWTSecret:  cfg.JWTSecret,
		JWTTTL:     cfg.JWTTTL,
	})
	boardService := services.NewBoardService(boardRepo, hub, logger)
	invitationService := services.NewInvitationService(invRepo, userRepo, boardRepo, mailer, logger, cfg.InvitationTTL)

	h := handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		User:       handlers.NewUserHandler(services.NewUserService(userRepo)),
		Board:      handlers.NewBoardHandler(boardService, invitationService),
		Invitation: handlers.NewInvitationHandler(invitationService),
		Card:       handlers.NewCardHandler(services.NewCardService(cardRepo, userRepo, hub, logger)),
		Task:       handlers.NewTaskHandler(services.NewTaskService(taskRepo, userRepo, generator, hub, logger)),
		Realtime:   handlers.NewRealtimeHandler(hub, boardService, cfg.RealtimeRequireMembership, logger),
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.AllowedOrigins()),
	)
	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(rdb, cfg.RateLimitPerWindow, cfg.RateLimitWindow, logger)
		r.Use(limiter.Middleware())
	}

	store, err := sessionStore(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create session store")
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Mini Trello API is running",
		})
	})

	handlers.RegisterRoutes(r.Group("/api"), h, authService, middleware.NewAccess(boardRepo, cardRepo, taskRepo))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// open event streams only end when their hub connection closes
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		logger.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// sessionStore builds the session backend with the cookie options shared by
// both stores.
func sessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.SessionStore == "redis" {
		s, err := redisStore.NewStore(
			10,              // Redis pool size
			"tcp",           // network type
			cfg.RedisAddr(), // Redis address from config
			"",              // username (empty for default user)
			cfg.RedisPassword,
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			return nil, err
		}
		store = s
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(), // true in production (HTTPS), false in development
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
