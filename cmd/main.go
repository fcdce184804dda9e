/*
Package main is the entry point for the folio server.

It loads configuration, initializes the global logger, connects to Postgres (running migrations),
wires the auth gateway, comment board, chat responder and live hub, serves HTTP and handles
SIGINT/SIGTERM for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/internal/app/auth"
	"folio/internal/app/chat"
	"folio/internal/app/comments"
	"folio/internal/app/db"
	"folio/internal/app/live"
	"folio/internal/app/storage"
	"folio/internal/configs"
	"folio/internal/handler"
	"folio/internal/pkg/logx"
	"folio/internal/pkg/metrics"
)

const sessionSweepInterval = time.Hour

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("chat_enabled", cfg.Chat.Enabled).
		Bool("google_enabled", cfg.Google.ClientID != "").
		Bool("media_enabled", cfg.S3.BucketName != "").
		Msg("Configuration loaded successfully")

	profile, err := configs.LoadChatProfile(cfg.Chat.ProfilePath)
	if err != nil {
		logx.Fatal(err, "Failed to load chat profile", "path", cfg.Chat.ProfilePath)
	}

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	store := db.NewStore(pool)
	collector := metrics.New("folio")

	gateway := auth.NewGateway(auth.NewPostgresStore(store), auth.Options{
		JWTSecret: cfg.JWTSecret,
		Google:    auth.NewGoogleProvider(cfg.Google),
		Metrics:   collector,
	})

	board := comments.NewBoard(comments.NewPostgresStore(store), comments.Options{Limit: cfg.CommentsLimit, Metrics: collector})

	var completer chat.Completer
	if openai := chat.NewOpenAICompleter(cfg.Chat); openai != nil {
		completer = chat.WithBreaker(openai, "openai", chat.DefaultBreakerSettings())
	} else {
		logx.Warn("No completion API key configured; chat will answer with canned replies")
	}

	chatOpts := chat.OptionsFromConfig(cfg.Chat, profile)
	chatOpts.Metrics = collector
	responder := chat.NewResponder(completer, chatOpts)

	// Transcripts belong to a sign-in; drop them when it ends.
	unsubscribeChat := gateway.Subscribe(func(e auth.Event) {
		if e.Kind == auth.SignedOut {
			responder.Forget(e.SessionID)
		}
	})

	hub := live.NewHub(board, gateway, responder, collector)
	hub.Start(ctx)

	storageService, err := storage.NewStorageService(cfg.S3)
	if err != nil {
		logx.Fatal(err, "Failed to initialize object storage")
	}
	media := storage.NewMedia(storageService, cfg.S3.MusicObjectKey)

	go sweepSessions(ctx, store)

	// Setup HTTP server and routes
	router := handler.Router(&handler.AppDeps{
		Config:   cfg,
		Auth:     gateway,
		Comments: board,
		Chat:     responder,
		Hub:      hub,
		Media:    media,
		Metrics:  collector,
		DB:       store,
		Owner:    profile.Name,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("folio server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Close sockets first: hijacked connections are not tracked by server.Shutdown.
	hub.Shutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	unsubscribeChat()
	responder.Close()

	logx.Info("Server gracefully stopped.")
}

// sweepSessions deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, store *db.Store) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := store.DeleteExpiredSessions(ctx, time.Now())
			if err != nil {
				logx.Error(err, "Failed to delete expired sessions")
				continue
			}
			if removed > 0 {
				logx.Info("Deleted expired sessions", "removed", removed)
			}
		case <-ctx.Done():
			return
		}
	}
}
