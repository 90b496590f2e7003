// Package server is the web front-end: a gin site rendered server-side with
// HTMX partials for sections, theme toggling and the contact form.
package server

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/store"
	"github.com/Zachkp/termfolio/internal/typewriter"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Options wires the server's collaborators.
type Options struct {
	Config  *config.Config
	Content *content.Portfolio
	// DB is optional. Without it visitor tracking, message archiving and the
	// admin area are disabled.
	DB *store.DB
	// Sender delivers accepted contact messages.
	Sender contact.Sender
	// Delays overrides the typewriter timings; zero means defaults.
	Delays typewriter.Delays
	Now    func() time.Time
}

// Server holds the gin engine and shared state.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	db         *store.DB
	sender     contact.Sender
	portfolio  atomic.Pointer[content.Portfolio]
	delays     typewriter.Delays
	now        func() time.Time
	hasher     store.Hasher
	limiter    *ipLimiter
	adminToken string
}

// New builds the engine and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Content == nil {
		return nil, errors.New("server: content is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("server: sender is required")
	}
	if opts.Delays == (typewriter.Delays{}) {
		opts.Delays = typewriter.DefaultDelays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		cfg:        opts.Config,
		db:         opts.DB,
		sender:     opts.Sender,
		delays:     opts.Delays,
		now:        opts.Now,
		hasher:     store.NewHasher(randomToken()),
		limiter:    newIPLimiter(opts.Config.Rate.PerMinute, opts.Config.Rate.Burst),
		adminToken: randomToken(),
	}
	s.portfolio.Store(opts.Content)

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	if s.db != nil {
		r.Use(s.visitorTrackingMiddleware())
	}
	s.engine = r
	s.setupRoutes()
	if s.db != nil {
		s.setupAdminRoutes()
	}
	return s, nil
}

// Handler exposes the engine for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Content returns the portfolio currently served.
func (s *Server) Content() *content.Portfolio { return s.portfolio.Load() }

// SetContent swaps in a reloaded portfolio.
func (s *Server) SetContent(p *content.Portfolio) { s.portfolio.Store(p) }

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("termfolio listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// CleanupLoop runs hourly housekeeping until ctx is done: idle rate
// limiters are dropped and visitor rows past retention are pruned.
func (s *Server) CleanupLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		s.limiter.Prune(s.now(), time.Hour)
		if s.db != nil {
			s.cleanupOldVisitorData(ctx)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Server) cleanupOldVisitorData(ctx context.Context) {
	n, err := s.db.Cleanup(ctx, s.now())
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", n)
	}
}

var templateFuncs = template.FuncMap{
	"ago":   func(t time.Time) string { return humanize.Time(t) },
	"comma": func(n int64) string { return humanize.Comma(n) },
	"ms":    func(d time.Duration) int64 { return d.Milliseconds() },
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("Failed to generate token:", err)
	}
	return hex.EncodeToString(b)
}
