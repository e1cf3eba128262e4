// Package server provides the browser UI and its JSON/PNG API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

const sessionName = "edaloom"

// Config holds configuration for the UI server.
type Config struct {
	Port           int
	SessionSecret  string
	MaxUploadMB    int
	AllowedOrigins []string
	SessionIdle    time.Duration
	PreviewRows    int
	HistogramBins  int
	Logger         *slog.Logger
}

// Server is the web UI server.
type Server struct {
	cfg          Config
	logger       *slog.Logger
	cookies      *sessions.CookieStore
	store        *SessionStore
	maxUploadLen int64
	idle         time.Duration
}

const defaultSessionIdle = 24 * time.Hour

// New creates a server. Without a session secret a random key is generated,
// so sessions do not survive a restart.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		logger.Warn("session_secret not set; using an ephemeral key")
		key = securecookie.GenerateRandomKey(32)
	}
	cookies := sessions.NewCookieStore(key)
	cookies.MaxAge(86400 * 7)
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode

	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 32
	}
	idle := cfg.SessionIdle
	if idle <= 0 {
		idle = defaultSessionIdle
	}
	return &Server{
		cfg:          cfg,
		logger:       logger,
		cookies:      cookies,
		store:        NewSessionStore(),
		maxUploadLen: int64(maxMB) << 20,
		idle:         idle,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.page)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.upload)
		r.Post("/sample", s.sample)
		r.Get("/sample/download", s.downloadSample)
		r.Get("/ops", s.listOps)
		r.Get("/ops/{op}", s.runOp)
		r.Post("/cleaning/{action}", s.addCleaning)
		r.Delete("/cleaning", s.resetCleaning)
		r.Get("/cleaning/download", s.downloadCleaned)
		r.Get("/query/download", s.downloadFiltered)
		r.Get("/charts/scatter.png", s.scatterChart)
		r.Get("/charts/{op}.png", s.chart)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		s.sweepSessions(egctx)
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// sweepSessions expires idle sessions until ctx is done.
func (s *Server) sweepSessions(ctx context.Context) {
	every := s.idle / 4
	if every > time.Minute {
		every = time.Minute
	}
	if every <= 0 {
		every = s.idle
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Expire(s.idle); n > 0 {
				s.logger.Debug("expired idle sessions", "count", n, "remaining", s.store.Len())
			}
		}
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
