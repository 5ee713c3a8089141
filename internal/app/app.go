package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/generative-ai-go/genai"

	"devkb/features/chat"
	"devkb/features/document"
	"devkb/features/search"
	"devkb/features/stats"
	"devkb/internal/adapter/gemini"
	"devkb/internal/config"
	"devkb/internal/middleware"
	"devkb/internal/vector"
)

// VectorStore is everything the application needs from the vector index.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, rec vector.ChunkRecord) error
	Query(ctx context.Context, vec []float32, k int, minSimilarity float64, f vector.Filter) ([]vector.Hit, error)
	DeleteByDocument(ctx context.Context, docID int64) error
	CountChunks(ctx context.Context) (int, error)
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	SearchService   *search.Service
	port            int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	genClient *genai.Client,
	logger *slog.Logger,
) (*App, error) {
	// Adapters
	embedder := gemini.NewEmbedder(genClient)
	categorizer := gemini.NewCategorizer(genClient)
	generator := gemini.NewGenerator(genClient)

	// Feature: Document
	docRepo := document.NewPostgresRepo(db)
	docService := document.NewService(docRepo, vecStore, embedder, categorizer, cfg.MaxChunkSize, cfg.ChunkOverlap)
	docHandler := document.NewHandler(docService)

	// Feature: Search
	queryLogger, err := search.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = search.NewQueryLogger(os.Stdout)
	}
	searchService := search.NewService(embedder, vecStore, docRepo, queryLogger, search.Options{
		DefaultLimit:    cfg.DefaultSearchLimit,
		MinSimilarity:   cfg.MinSimilarity,
		KeywordPageSize: cfg.KeywordPageSize,
	})
	searchHandler := search.NewHandler(searchService)

	// Feature: Chat
	chatRepo := chat.NewPostgresRepo(db)
	chatService := chat.NewService(searchService, generator, chatRepo)
	chatHandler := chat.NewHandler(chatService)

	// Feature: Stats
	statsHandler := stats.NewHandler(docRepo, chatRepo, vecStore)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /documents", middleware.CorrelationID(enableCORS(docHandler.Ingest)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Get)))
	mux.Handle("PATCH /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Update)))
	mux.Handle("DELETE /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Delete)))
	mux.Handle("GET /documents/tags/list", middleware.CorrelationID(enableCORS(docHandler.Tags)))
	mux.Handle("GET /documents/categories/list", middleware.CorrelationID(enableCORS(docHandler.Categories)))

	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(searchHandler.Search)))

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Ask)))
	mux.Handle("GET /chat/history", middleware.CorrelationID(enableCORS(chatHandler.History)))

	mux.Handle("POST /admin/index/directory", middleware.CorrelationID(enableCORS(docHandler.IndexDirectory)))
	mux.Handle("GET /admin/stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:         mux,
		DocumentService: docService,
		SearchService:   searchService,
		port:            cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
