package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/internal/settings"
	"go.uber.org/zap"
)

// Server exposes the value store over HTTP/JSON. The store is not safe for
// concurrent use, so every call goes through mu.
type Server struct {
	store eav.Store
	mu    sync.Mutex
	mux   *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(store eav.Store) *Server {
	return &Server{
		store: store,
		mux:   http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("POST /api/v1/connect", s.handleConnect)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/entity-types", s.handleListEntityTypes)
	s.mux.HandleFunc("POST /api/v1/entity-types", s.handleCreateEntityType)
	s.mux.HandleFunc("GET /api/v1/entity-types/{id}", s.handleGetEntityType)
	s.mux.HandleFunc("DELETE /api/v1/entity-types/{id}", s.handleDeleteEntityType)
	s.mux.HandleFunc("GET /api/v1/entity-types/{id}/entities", s.handleListEntities)
	s.mux.HandleFunc("GET /api/v1/entity-types/{id}/attributes", s.handleListAttributes)
	s.mux.HandleFunc("GET /api/v1/entity-types/{id}/schema", s.handleEntityTypeSchema)

	s.mux.HandleFunc("POST /api/v1/entities", s.handleCreateEntity)
	s.mux.HandleFunc("GET /api/v1/entities/{id}", s.handleGetEntity)
	s.mux.HandleFunc("DELETE /api/v1/entities/{id}", s.handleDeleteEntity)
	s.mux.HandleFunc("GET /api/v1/entities/{id}/views", s.handleFetchViews)
	s.mux.HandleFunc("GET /api/v1/entities/{id}/validate", s.handleValidateEntity)

	s.mux.HandleFunc("POST /api/v1/attributes", s.handleCreateAttribute)
	s.mux.HandleFunc("GET /api/v1/attributes/{id}", s.handleGetAttribute)
	s.mux.HandleFunc("DELETE /api/v1/attributes/{id}", s.handleDeleteAttribute)

	s.mux.HandleFunc("POST /api/v1/values", s.handleCreateValue)
	s.mux.HandleFunc("GET /api/v1/values/{id}", s.handleGetValue)
	s.mux.HandleFunc("PUT /api/v1/values/{id}", s.handleUpdateValue)
	s.mux.HandleFunc("DELETE /api/v1/values/{id}", s.handleDeleteValue)

	s.mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/v1/search/name", s.handleSearchByName)
	s.mux.HandleFunc("GET /api/v1/search/with-attribute", s.handleSearchWithAttribute)
	s.mux.HandleFunc("GET /api/v1/search/without-attribute", s.handleSearchWithoutAttribute)
	s.mux.HandleFunc("GET /api/v1/search/value", s.handleSearchByValue)
	s.mux.HandleFunc("GET /api/v1/search/compare", s.handleSearchByComparison)
}

// Handler returns the routed mux wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// withRequestID tags each request with an id and logs its outcome.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)
		zap.S().Infow("handled request",
			"requestId", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func main() {
	cfg, err := settings.Load(os.Getenv("EAV_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		sugar.Fatalf("failed to create value store: %v", err)
	}
	defer store.Close()

	server := NewServer(store)
	server.RegisterRoutes()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("shutdown did not complete", "error", err)
		}
	}()

	sugar.Infow("starting server", "port", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalf("server error: %v", err)
	}
}
