package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/cache"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/config"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/handler"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/middleware"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/presence"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/service"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/store"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/database"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/jwt"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat service")

	// Initialize database
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	if err := database.AutoMigrate(db, &store.RoomModel{}, &store.MessageModel{}, &store.ReceiptModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize history cache
	history, err := cache.NewRedisHistoryCache(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer history.Close()
	logger.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	// Initialize Hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Initialize presence registry and chat service
	registry := presence.NewRegistry()
	rooms := store.NewGormRoomStore(db)
	messages := store.NewGormMessageStore(db)
	chatSvc := service.NewChatService(wsHub, registry, rooms, messages, history, cfg.Redis.HistoryTTL)

	// Initialize handlers
	jwtManager := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL, cfg.Auth.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(chatSvc, authMiddleware)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(logger))

	httpHandler.RegisterRoutes(router)
	router.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chat service stopped")
}
