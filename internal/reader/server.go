package reader

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/mercury-reader/internal/logger"
	"github.com/samvad-hq/mercury-reader/pkg/mercury"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"str": mercury.StringValue,
	"content": func(s string) template.HTML {
		// article bodies are HTML produced by the parser service
		return template.HTML(s) //nolint:gosec
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2 January 2006")
	},
}).ParseFS(templateFS, "templates/*.html"))

const shutdownTimeout = 10 * time.Second

// Server is the reader HTTP front end.
type Server struct {
	svc    *Service
	log    logger.Logger
	router chi.Router
}

// NewServer wires routes and middleware around svc.
func NewServer(svc *Service, log logger.Logger) *Server {
	if log == nil {
		log = &logger.NopLogger{}
	}
	s := &Server{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/read", s.handleRead)
	r.Get("/api/articles", s.handleAPIArticle)
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.InfoObj("reader server listening", "reader_server", map[string]any{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "index.html", nil)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	article, err := s.svc.Read(r.Context(), target)
	if err != nil {
		status, msg := classify(err)
		s.logFailure(r, target, status, err)
		s.render(w, status, "error.html", map[string]any{"Status": status, "Message": msg, "URL": target})
		return
	}
	s.render(w, http.StatusOK, "article.html", article)
}

func (s *Server) handleAPIArticle(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	article, err := s.svc.Read(r.Context(), target)
	if err != nil {
		status, msg := classify(err)
		s.logFailure(r, target, status, err)
		writeJSON(w, status, errorBody{Error: msg, Status: status})
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.svc.CacheStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache": map[string]int{
			"hits":   stats.Hits,
			"misses": stats.Misses,
			"added":  stats.Added,
		},
	})
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// classify maps client errors to an HTTP status and a user-facing message.
// Anything the upstream service got wrong is a 502; bad input is a 400.
func classify(err error) (int, string) {
	var (
		cfgErr *mercury.ConfigError
		apiErr *mercury.APIError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, cfgErr.Error()
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "parser service timed out"
	case mercury.IsTransportError(err):
		return http.StatusBadGateway, "parser service unreachable"
	case mercury.IsDecodeError(err):
		return http.StatusBadGateway, "parser service returned an unexpected response"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) logFailure(r *http.Request, target string, status int, err error) {
	fields := map[string]any{
		"request_id": middleware.GetReqID(r.Context()),
		"url":        target,
		"status":     status,
		"error":      err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.log.WarnObj("reader request failed", "reader_error", fields)
		return
	}
	s.log.DebugObj("reader request rejected", "reader_error", fields)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.ErrorObj("template render failed", "reader_error", map[string]any{
			"template": name,
			"error":    err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.InfoObj("reader request", "http_request", map[string]any{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
