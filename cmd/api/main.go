package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/finance-assistant/internal/ai"
	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/audio"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/store"
	bqstore "github.com/dvloznov/finance-assistant/internal/store/bigquery"
	"github.com/dvloznov/finance-assistant/internal/store/inmemory"
)

func main() {
	cfg := config.Load()

	// Flags override the environment for local runs
	var (
		port    = flag.String("port", cfg.Port, "HTTP server port")
		backend = flag.String("store", cfg.StoreBackend, "record store backend (memory or bigquery)")
	)
	flag.Parse()
	cfg.Port = *port
	cfg.StoreBackend = *backend

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Record store backend
	var records store.RecordStore
	memStore := inmemory.NewStore()
	switch cfg.StoreBackend {
	case config.BackendBigQuery:
		bq, err := bqstore.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		records = bq
	default:
		records = memStore
	}

	// The transcript always lives in memory; it is conversation state, not
	// ledger data.
	transcript := memStore

	aiClient, err := ai.NewClient(ctx, ai.Config{
		TextModel:   cfg.TextModel,
		SpeechModel: cfg.SpeechModel,
		Voice:       cfg.Voice,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	asst := assistant.New(records, transcript, aiClient, aiClient, logger.WithComponent(log, "assistant"))

	// Voice clip archive
	var clipArchive audio.ClipArchiver
	var archiver *archive.Archiver
	if cfg.GCSBucket != "" {
		archiver = archive.NewArchiver(
			archive.NewGCSUploader(cfg.GCSBucket), 32, 2,
			logger.WithComponent(log, "archive"),
		)
		clipArchive = archiver
	} else {
		log.Warn().Msg("No GCS bucket configured - voice clip archiving is disabled")
	}

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(asst, transcript, log)
	voiceHandler := handlers.NewVoiceHandler(asst, transcript, aiClient, aiClient, clipArchive, log)
	recordsHandler := handlers.NewRecordsHandler(records, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat/voice", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			voiceHandler.VoiceChat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			chatHandler.ListMessages(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/messages/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/messages/")
		messageID, ok := strings.CutSuffix(rest, "/speech")
		if !ok || messageID == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method == http.MethodGet {
			voiceHandler.Speech(w, r, messageID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListTransactions(w, r)
		case http.MethodPost:
			recordsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			recordsHandler.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			recordsHandler.DeleteTransaction(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListBudgets(w, r)
		case http.MethodPost:
			recordsHandler.CreateBudget(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/budgets/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Budget ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			recordsHandler.UpdateBudget(w, r, id)
		case http.MethodDelete:
			recordsHandler.DeleteBudget(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recordsHandler.ListGoals(w, r)
		case http.MethodPost:
			recordsHandler.CreateGoal(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			recordsHandler.UpdateGoal(w, r, id)
		case http.MethodDelete:
			recordsHandler.DeleteGoal(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			recordsHandler.Summary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			recordsHandler.Reset(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(cfg.AuthToken)(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush queued clip uploads before exiting
	if archiver != nil {
		if err := archiver.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping clip archiver")
		}
	}

	log.Info().Msg("Server exited")
}
