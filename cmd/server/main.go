package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"world-server/internal/auth"
	"world-server/internal/config"
	"world-server/internal/database"
	"world-server/internal/game"
	"world-server/internal/handlers"
	"world-server/internal/world"
	"world-server/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Load the shared obstacle grid, fixed at process start
	grid, err := world.LoadGridFile(cfg.World.MapFile)
	if err != nil {
		logger.Fatal("Failed to load world map %s: %v", cfg.World.MapFile, err)
	}
	logger.Info("Loaded world map %s (%dx%d cells)", cfg.World.MapFile, grid.Cols(), grid.Rows())

	// Initialize registries and the room engine
	roomRegistry := game.NewRoomRegistry(db)
	if err := roomRegistry.Restore(context.Background(), db); err != nil {
		logger.Error("Room restore failed, starting with empty registry: %v", err)
	}
	sessionRegistry := game.NewSessionRegistry(db, cfg.World.SpawnX, cfg.World.SpawnY)
	engine := game.NewEngine(roomRegistry, sessionRegistry, grid, db, game.NewLogRewardSink(), cfg.World.MaxChatLength)

	// Initialize services and handlers
	authService := auth.NewService(db, cfg)
	authHandlers := handlers.NewAuthHandlers(authService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, engine)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/login", authHandlers.Login)
	mux.HandleFunc("/register", authHandlers.Register)
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("🚀 Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
	server.Shutdown(context.Background())
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
