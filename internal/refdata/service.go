// Package refdata memoizes the four upstream reference collections
// (projects, financial movements, counterpart directory, category directory)
// behind a shared TTL cache. Loaders drain every upstream page; concurrent
// cache misses on the same collection share one drain.
package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aporte/internal/cache"
	"aporte/internal/ledger"
)

const (
	// DefaultTTL applies uniformly to every reference collection.
	DefaultTTL = 15 * time.Minute

	// DefaultMaxPages caps a pagination drain; a collection larger than
	// this fails the load rather than running without a deadline.
	DefaultMaxPages = 500

	// Movements are fetched filtered to the cash/bank ledger type.
	movementLedgerType = "CC"
)

// ErrTooManyPages marks a drain that exceeded the page cap. Treated like any
// transient upstream failure by callers.
var ErrTooManyPages = errors.New("pagination drain exceeded page cap")

// Gateway is the slice of the ledger client the service depends on.
type Gateway interface {
	Call(ctx context.Context, endpointPath, method string, params map[string]any) (json.RawMessage, error)
	Disabled() bool
}

// Service exposes the cached collections. Cache keys are the logical
// collection names; the only invalidation paths are TTL expiry and the
// administrative Clear.
type Service struct {
	gw       Gateway
	log      *slog.Logger
	ttl      time.Duration
	maxPages int

	projects     *cache.Store[[]ledger.Project]
	movements    *cache.Store[[]ledger.Movement]
	counterparts *cache.Store[[]ledger.Counterpart]
	categories   *cache.Store[[]ledger.Category]
}

// Option tweaks a Service.
type Option func(*Service)

// WithTTL overrides the collection TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithMaxPages overrides the drain page cap.
func WithMaxPages(n int) Option {
	return func(s *Service) { s.maxPages = n }
}

// WithClock injects the clock used by the underlying stores.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.projects = cache.NewStoreWithClock[[]ledger.Project](now)
		s.movements = cache.NewStoreWithClock[[]ledger.Movement](now)
		s.counterparts = cache.NewStoreWithClock[[]ledger.Counterpart](now)
		s.categories = cache.NewStoreWithClock[[]ledger.Category](now)
	}
}

// NewService builds the reference-data service around a gateway.
func NewService(gw Gateway, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		gw:           gw,
		log:          logger,
		ttl:          DefaultTTL,
		maxPages:     DefaultMaxPages,
		projects:     cache.NewStore[[]ledger.Project](),
		movements:    cache.NewStore[[]ledger.Movement](),
		counterparts: cache.NewStore[[]ledger.Counterpart](),
		categories:   cache.NewStore[[]ledger.Category](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the collection stores to a cleanup manager.
func (s *Service) Register(m *cache.Manager) {
	m.Register(s.projects)
	m.Register(s.movements)
	m.Register(s.counterparts)
	m.Register(s.categories)
}

// Clear drops every cached collection. Administrative only.
func (s *Service) Clear() {
	s.projects.Clear()
	s.movements.Clear()
	s.counterparts.Clear()
	s.categories.Clear()
	s.log.Info("reference data cache cleared")
}

// Projects returns the upstream project list.
func (s *Service) Projects(ctx context.Context) ([]ledger.Project, error) {
	if s.gw.Disabled() {
		return nil, nil
	}
	return s.projects.GetOrLoad("projects", s.ttl, func() ([]ledger.Project, error) {
		return drain[ledger.Project](ctx, s, "geral/projetos/", "ListarProjetos",
			func(page int) map[string]any {
				return map[string]any{"pagina": page, "registros_por_pagina": 100}
			}, ledger.ProjectFields)
	})
}

// Movements returns the full movement collection, cash/bank ledger type only.
func (s *Service) Movements(ctx context.Context) ([]ledger.Movement, error) {
	if s.gw.Disabled() {
		return nil, nil
	}
	return s.movements.GetOrLoad("movements:"+movementLedgerType, s.ttl, func() ([]ledger.Movement, error) {
		return drain[ledger.Movement](ctx, s, "financas/movimentofinanceiro/", "ListarMovimentos",
			func(page int) map[string]any {
				return map[string]any{
					"nPagina":       page,
					"nRegPorPagina": 500,
					"cTpLancamento": movementLedgerType,
				}
			}, ledger.MovementFields)
	})
}

// Counterparts returns the counterpart directory.
func (s *Service) Counterparts(ctx context.Context) ([]ledger.Counterpart, error) {
	if s.gw.Disabled() {
		return nil, nil
	}
	return s.counterparts.GetOrLoad("counterparts", s.ttl, func() ([]ledger.Counterpart, error) {
		return drain[ledger.Counterpart](ctx, s, "geral/clientes/", "ListarClientes",
			func(page int) map[string]any {
				return map[string]any{"pagina": page, "registros_por_pagina": 100}
			}, ledger.CounterpartFields)
	})
}

// Categories returns the category directory.
func (s *Service) Categories(ctx context.Context) ([]ledger.Category, error) {
	if s.gw.Disabled() {
		return nil, nil
	}
	return s.categories.GetOrLoad("categories", s.ttl, func() ([]ledger.Category, error) {
		return drain[ledger.Category](ctx, s, "geral/categorias/", "ListarCategorias",
			func(page int) map[string]any {
				return map[string]any{"pagina": page, "registros_por_pagina": 100}
			}, ledger.CategoryFields)
	})
}

// drain walks every page of a collection, decoding each payload item.
// Items that fail to decode are skipped with a warning rather than failing
// the whole collection.
func drain[T any](ctx context.Context, s *Service, endpoint, method string, params func(page int) map[string]any, fields []string) ([]T, error) {
	var out []T
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		if page > s.maxPages {
			return nil, fmt.Errorf("%w: %s after %d pages", ErrTooManyPages, method, s.maxPages)
		}
		raw, err := s.gw.Call(ctx, endpoint, method, params(page))
		if err != nil {
			return nil, fmt.Errorf("drain %s page %d: %w", method, page, err)
		}
		if page == 1 {
			totalPages = ledger.ExtractTotalPages(raw)
		}
		for _, item := range ledger.ExtractItems(raw, fields) {
			var v T
			if err := json.Unmarshal(item, &v); err != nil {
				s.log.Warn("skipping undecodable item", "method", method, "page", page, "error", err)
				continue
			}
			out = append(out, v)
		}
	}
	s.log.Debug("collection drained", "method", method, "pages", totalPages, "items", len(out))
	return out, nil
}
