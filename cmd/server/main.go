package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ramanand1101/webRtc-backend/config"
	"github.com/Ramanand1101/webRtc-backend/internal/handlers"
	"github.com/Ramanand1101/webRtc-backend/internal/middleware"
	"github.com/Ramanand1101/webRtc-backend/internal/redis"
	"github.com/Ramanand1101/webRtc-backend/internal/signaling"
	"github.com/Ramanand1101/webRtc-backend/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Open the record store
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	log.Printf("Record store ready at %s", cfg.DatabasePath)

	// Connect to Redis
	rds, err := redis.New(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rds.Close()
	log.Println("Redis connection established")

	// Ensure the upload directory exists
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	// Live session coordinator
	hub := signaling.NewHub(signaling.NewRegistry())
	hub.SetPresenceSink(rds)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/login", handlers.Login(st, cfg.JWTSecret))

		apiGroup.POST("/users", handlers.CreateUser(st))
		apiGroup.GET("/users/:id", handlers.GetUser(st))

		apiGroup.POST("/rooms", middleware.JWTAuth(cfg.JWTSecret), handlers.CreateRoom(st, rds))
		apiGroup.POST("/rooms/join", handlers.JoinRoom(st))
		apiGroup.GET("/rooms/:roomId", handlers.GetRoom(st, rds))
		apiGroup.DELETE("/rooms/:roomId", middleware.JWTAuth(cfg.JWTSecret), handlers.DeleteRoom(st, rds))

		apiGroup.GET("/chat-history/:roomId", handlers.GetChatHistory(hub))
	}

	// Recorded session artifacts
	router.POST("/upload", handlers.UploadRecording(cfg.UploadDir))
	router.Static("/uploads", cfg.UploadDir)

	// WebSocket signaling endpoint
	router.GET("/ws", handlers.ServeWS(hub))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting WebRTC session server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
