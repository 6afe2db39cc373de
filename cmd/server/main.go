package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VanderSpeare/discord-clone/internal/chat"
	"github.com/VanderSpeare/discord-clone/internal/config"
	"github.com/VanderSpeare/discord-clone/internal/database"
	"github.com/VanderSpeare/discord-clone/internal/handlers"
	"github.com/VanderSpeare/discord-clone/internal/repository"
	"github.com/VanderSpeare/discord-clone/internal/services"
	"github.com/VanderSpeare/discord-clone/pkg/logger"
	"github.com/VanderSpeare/discord-clone/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	messageRepo := repository.NewMessageRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	userRepo := repository.NewUserRepository(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 15*time.Second)
	if err := messageRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Message index error: %v", err)
	}
	if err := friendshipRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Friend edge index error: %v", err)
	}
	cancelIndex()

	// --- Services ---
	messageService := services.NewMessageService(messageRepo, userRepo)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo)

	// --- Live delivery ---
	registry := chat.NewRegistry()
	gateway := chat.NewGateway(registry, messageService, cfg.SessionBuffer)

	// --- Handlers ---
	messageHandler := handlers.NewMessageHandler(messageService)
	friendHandler := handlers.NewFriendHandler(friendshipService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	router.HandleFunc("/messages/{roomId}", messageHandler.GetRoomMessagesHandler).Methods("GET")

	friendRoutes := router.PathPrefix("/friends").Subrouter()
	friendRoutes.HandleFunc("/add", friendHandler.AddFriendHandler).Methods("POST")
	friendRoutes.HandleFunc("/accept", friendHandler.AcceptFriendHandler).Methods("POST")
	friendRoutes.HandleFunc("/list", friendHandler.ListFriendsHandler).Methods("GET")

	router.HandleFunc("/ws", gateway.HandleWS)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "online",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(router),
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Block until a termination signal, then drain connections before exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("HTTP shutdown error: %v", err)
	}
	registry.Close()
	if err := database.Disconnect(shutdownCtx, db); err != nil {
		logger.Log.Errorf("Database disconnect error: %v", err)
	}

	logger.Log.Info("Server stopped")
}
