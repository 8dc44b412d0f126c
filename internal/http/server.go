// Package http exposes the JSON API consumed by the mobile app.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"aporte/internal/catalog"
	"aporte/internal/finance"
	"aporte/internal/log"
	"aporte/internal/middleware/ratelimit"
	"aporte/internal/middleware/security"
	"aporte/internal/middleware/trace"
)

// Finance is the aggregation surface the handlers call. Every method
// degrades to a zero value when the upstream ledger is unreachable, so the
// API never turns ledger trouble into a 5xx.
type Finance interface {
	ProjectCost(ctx context.Context, propertyName string) finance.CostReport
	InvestorContribution(ctx context.Context, investorID, propertyName string) float64
	RealizedProfit(ctx context.Context, propertyName, investorID string) float64
	ClearCache()
}

type Server struct {
	http.Server

	properties catalog.PropertyReader
	investors  catalog.InvestorReader
	fin        Finance
	logger     *slog.Logger

	adminToken string

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Options tunes the server surfaces that have sane defaults.
type Options struct {
	// AdminToken guards POST /admin/cache/clear. Empty disables the route.
	AdminToken string
	// RequestsPerMinute caps per-client traffic. Zero means the default.
	RequestsPerMinute int
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, props catalog.PropertyReader, inv catalog.InvestorReader, fin Finance, logger *slog.Logger, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		properties:  props,
		investors:   inv,
		fin:         fin,
		logger:      log.ForComponent(logger, log.ComponentHTTP),
		adminToken:  opts.AdminToken,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
	}

	extractor := security.NewExtractor()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.logger, extractor.ClientIP)
	limited := s.rateLimiter.Middleware(extractor.ClientIP, nil)

	chain := func(h http.Handler) http.Handler {
		return headers.Middleware(tracer.Middleware(limited(h)))
	}

	// Probes stay outside the middleware chain so orchestration traffic
	// does not eat into client rate limits or flood the request log.
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/login", chain(http.HandlerFunc(s.handleLogin)))
	mux.Handle("/properties", chain(http.HandlerFunc(s.handleListProperties)))
	mux.Handle("/properties/cost", chain(http.HandlerFunc(s.handleProjectCost)))
	mux.Handle("/investors/summary", chain(http.HandlerFunc(s.handleInvestorSummary)))
	mux.Handle("/admin/cache/clear", chain(http.HandlerFunc(s.handleCacheClear)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
