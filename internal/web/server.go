package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/generate"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	DB      *sql.DB
	Config  *config.Config
	Quotes  *generate.Service
	Logger  *zap.Logger
	Version string
}

// NewServer creates and configures the HTTP server: the JSON API and the
// single-page HTML UI.
func NewServer(deps Deps, bind string, port int) (*http.Server, error) {
	h, err := newHandlers(deps)
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           h.routes(http.FileServerFS(staticSub)),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func newHandlers(deps Deps) (*Handlers, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		db:       deps.DB,
		cfg:      deps.Config,
		quotes:   deps.Quotes,
		logger:   logger,
		renderer: NewRenderer(templateSub, deps.Version, logger),
	}, nil
}

// routes builds the mux using Go 1.22+ pattern syntax.
func (h *Handlers) routes(static http.Handler) http.Handler {
	mux := http.NewServeMux()

	// JSON API
	mux.HandleFunc("GET /api", h.HandleAPIRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /quote", h.HandleQuote)
	mux.HandleFunc("GET /quotes", h.HandleListQuotes)
	mux.HandleFunc("POST /quotes", h.HandleCreateQuote)
	mux.HandleFunc("GET /quotes/{id}", h.HandleGetQuote)
	mux.HandleFunc("PUT /quotes/{id}", h.HandleUpdateQuote)
	mux.HandleFunc("DELETE /quotes/{id}", h.HandleDeleteQuote)

	// HTML UI
	mux.HandleFunc("GET /{$}", h.HandleHome)
	mux.HandleFunc("POST /ui/save", h.HandleUISave)
	mux.HandleFunc("POST /ui/quotes", h.HandleUIAdd)
	mux.HandleFunc("POST /ui/quotes/{id}", h.HandleUIEdit)
	mux.HandleFunc("POST /ui/quotes/{id}/delete", h.HandleUIDelete)
	mux.HandleFunc("POST /ui/theme", h.HandleUITheme)

	mux.Handle("GET /static/", http.StripPrefix("/static/", static))

	return requestLogger(h.logger, securityHeaders(cors(mux)))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// cors lets browser frontends on other origins call the JSON API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, logger *zap.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("muse running", zap.String("url", "http://"+srv.Addr))
	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
