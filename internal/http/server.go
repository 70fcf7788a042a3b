// Package http serves the payment schedule over HTML pages and a JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"paysched/internal/cache"
	"paysched/internal/core"
	"paysched/internal/documents"
	"paysched/internal/middleware/ratelimit"
	"paysched/internal/middleware/security"
	"paysched/internal/middleware/trace"
	"paysched/internal/services"
	appweb "paysched/web"
)

const (
	uploadsPrefix = "/uploads/"
	cacheTTL      = 5 * time.Minute
)

// Options configures NewServer. Service and Documents are required.
type Options struct {
	Addr      string
	Service   *services.PaymentService
	Documents *documents.LocalStore
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	// Metrics is mounted on /metrics when set.
	Metrics  http.Handler
	Observer trace.Observer

	RateLimitPerMinute int
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For, on top of
	// loopback and private ranges.
	TrustedProxies []string
}

type Server struct {
	http.Server

	svc       *services.PaymentService
	docs      *documents.LocalStore
	ready     func(ctx context.Context) error
	templates map[string]*template.Template
	limiter   *ratelimit.Limiter
	ips       *security.IPResolver

	calendarCache *cache.LRUCache[services.CalendarView]
	overviewCache *cache.LRUCache[core.Overview]
	caches        *cache.Manager
	// generation is part of every view cache key and moves on each write, so a view
	// loaded before the write can no longer be found after it.
	generation atomic.Uint64

	shutdownOnce sync.Once
}

func NewServer(opts Options) (*Server, error) {
	if opts.Service == nil || opts.Documents == nil {
		return nil, errors.New("http: service and document store are required")
	}
	ips, err := security.NewIPResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	ready := opts.Ready
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			// Uploads of up to the document ceiling need more than the header budget.
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		svc:           opts.Service,
		docs:          opts.Documents,
		ready:         ready,
		templates:     tmpl,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		ips:           ips,
		calendarCache: cache.NewLRUCache[services.CalendarView](100, cacheTTL),
		overviewCache: cache.NewLRUCache[core.Overview](20, cacheTTL),
		caches:        cache.NewManager(),
	}
	s.caches.Register(s.calendarCache)
	s.caches.Register(s.overviewCache)
	s.caches.StartCleanup(time.Minute)

	s.Handler = s.routes(opts)
	return s, nil
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	tracer := trace.NewMiddleware(s.ips.ClientIP, opts.Observer)
	r.Use(tracer.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.limiter.Middleware(s.ips.ClientIP, s.handleRateLimited))
	r.Use(s.invalidateOnWrite)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}
	r.Handle(uploadsPrefix+"*", s.uploadsHandler())

	r.Get("/", s.handleDashboard)
	r.Get("/calendar", s.handleCalendarPage)
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", s.handlePaymentsPage)
		r.Post("/", s.handleCreateForm)
		r.Get("/{id}/edit", s.handleEditPage)
		r.Post("/{id}", s.handleUpdateForm)
		r.Post("/{id}/defer", s.handleDeferForm)
		r.Post("/{id}/pending", s.handleMarkPendingForm)
		r.Post("/{id}/reschedule", s.handleRescheduleForm)
		r.Post("/{id}/document", s.handleDocumentForm)
		r.Post("/{id}/delete", s.handleDeleteForm)
	})
	r.Route("/trash", func(r chi.Router) {
		r.Get("/", s.handleTrashPage)
		r.Post("/{id}/restore", s.handleRestoreForm)
		r.Post("/{id}/purge", s.handlePurgeForm)
	})
	r.Route("/api", s.apiRoutes)

	r.NotFound(s.handleNotFound)
	return r
}

// Shutdown stops background goroutines and then the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateOnWrite drops the cached views once a state-changing request has run.
func (s *Server) invalidateOnWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		s.generation.Add(1)
		s.calendarCache.Purge()
		s.overviewCache.Purge()
	})
}

// viewKey scopes a cache key to today and the current write generation.
func (s *Server) viewKey(name string) string {
	return fmt.Sprintf("%s@%s#%d", name, s.svc.Today(), s.generation.Load())
}

// uploadsHandler serves stored documents. Directory listings are refused.
func (s *Server) uploadsHandler() http.Handler {
	files := http.StripPrefix(uploadsPrefix, http.FileServer(http.Dir(s.docs.Dir())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": map[string]string{"storage": err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{"storage": "ok"},
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", s.ips.ClientIP(r), "method", r.Method, "url", r.URL.Path)
	if isAPI(r) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	s.renderError(w, r, http.StatusNotFound, "")
}

func isAPI(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// calendar returns the month view, served from cache while today is unchanged.
func (s *Server) calendar(ctx context.Context, year int, month time.Month) (services.CalendarView, error) {
	key := s.viewKey(fmt.Sprintf("%04d-%02d", year, int(month)))
	if v, ok := s.calendarCache.Get(key); ok {
		return v, nil
	}
	v, err := s.svc.Calendar(ctx, year, month)
	if err != nil {
		return services.CalendarView{}, err
	}
	s.calendarCache.Set(key, v)
	return v, nil
}

func (s *Server) overview(ctx context.Context) (core.Overview, error) {
	key := s.viewKey("overview")
	if v, ok := s.overviewCache.Get(key); ok {
		return v, nil
	}
	v, err := s.svc.Overview(ctx)
	if err != nil {
		return core.Overview{}, err
	}
	s.overviewCache.Set(key, v)
	return v, nil
}
