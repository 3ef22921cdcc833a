// Package web serves the single-page upload form and its JSON twin.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/eda-cli/internal/pipeline"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Analyzer runs one analysis for an uploaded file.
type Analyzer interface {
	Run(ctx context.Context, path string) (*pipeline.Result, error)
}

// Config holds configuration for the web server.
type Config struct {
	Addr        string
	Share       bool
	OutputDir   string
	MaxUploadMB int
	// RatePerMinute caps analyses across all clients; 0 disables the cap.
	RatePerMinute int
}

// Server is the upload-and-view web form.
type Server struct {
	cfg      Config
	analyzer Analyzer
	logger   *slog.Logger
	// runs serialises analyses: they share the output directory.
	runs sync.Mutex
}

// NewServer creates a new web server instance.
func NewServer(cfg Config, analyzer Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 32
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return &Server{cfg: cfg, analyzer: analyzer, logger: logger}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		structuredLogger(s.logger),
		middleware.Recoverer,
	)
	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) {
		r.Use(rateLimited(s.cfg.RatePerMinute, s.logger))
		r.Post("/analyze", s.handleAnalyzeForm)
		r.Post("/api/analyze", s.handleAnalyzeAPI)
	})
	r.Get("/images/{name}", s.handleImage)
	r.Get("/healthz", s.handleHealth)
	return r
}

// ListenAddr resolves the configured address. Sharing binds all interfaces; otherwise
// an address without a host binds loopback only.
func ListenAddr(addr string, share bool) (string, error) {
	if addr == "" {
		addr = ":7860"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	switch {
	case share:
		host = "0.0.0.0"
	case host == "":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port), nil
}

// Serve listens and blocks until ctx is cancelled, then shuts down gracefully.
// ready, when non-nil, receives the bound address once listening.
func (s *Server) Serve(ctx context.Context, ready func(addr string)) error {
	addr, err := ListenAddr(s.cfg.Addr, s.cfg.Share)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting web form", "addr", "http://"+ln.Addr().String(), "share", s.cfg.Share)
	if ready != nil {
		ready(ln.Addr().String())
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down web form")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
