package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"aporte/internal/cache"
	"aporte/internal/core"
	"aporte/internal/ledger"
)

// DefaultResultTTL bounds memoized aggregation results, matching the
// reference-collection TTL.
const DefaultResultTTL = 15 * time.Minute

// errDegraded wraps causes so GetOrLoad skips caching degraded outcomes; a
// degraded zero is recomputed on the next call instead of sticking for a
// full TTL.
var errDegraded = errors.New("aggregation degraded")

// Reference is the slice of the reference-data service the aggregators use.
type Reference interface {
	Projects(ctx context.Context) ([]ledger.Project, error)
	Movements(ctx context.Context) ([]ledger.Movement, error)
	Counterparts(ctx context.Context) ([]ledger.Counterpart, error)
	Categories(ctx context.Context) ([]ledger.Category, error)
}

// DegradedPublisher receives degraded-aggregation notifications. Optional;
// a nil publisher drops them.
type DegradedPublisher interface {
	PublishAggregationDegraded(ctx context.Context, operation, key, cause string) error
}

// Service hosts the three aggregation operations. All failures collapse to
// zero/empty results at this boundary; nothing above it handles
// ledger-specific errors.
type Service struct {
	ref Reference
	log *slog.Logger
	pub DegradedPublisher
	ttl time.Duration

	costs   *cache.Store[CostReport]
	amounts *cache.Store[float64]
}

// ServiceOption tweaks a Service.
type ServiceOption func(*Service)

// WithResultTTL overrides the memoization TTL for aggregation results.
func WithResultTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithPublisher wires the degraded-event publisher.
func WithPublisher(pub DegradedPublisher) ServiceOption {
	return func(s *Service) { s.pub = pub }
}

// WithResultClock injects the clock used by the result stores.
func WithResultClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.costs = cache.NewStoreWithClock[CostReport](now)
		s.amounts = cache.NewStoreWithClock[float64](now)
	}
}

// NewService builds the aggregation service on top of reference data.
func NewService(ref Reference, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		ref:     ref,
		log:     logger,
		ttl:     DefaultResultTTL,
		costs:   cache.NewStore[CostReport](),
		amounts: cache.NewStore[float64](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the result stores to a cleanup manager.
func (s *Service) Register(m *cache.Manager) {
	m.Register(s.costs)
	m.Register(s.amounts)
}

// ClearCache drops memoized results. Administrative only.
func (s *Service) ClearCache() {
	s.costs.Clear()
	s.amounts.Clear()
}

// ProjectCost computes the total cost of one property's project, grouped by
// category and itemized. The property name is used verbatim in the cache
// key.
func (s *Service) ProjectCost(ctx context.Context, propertyName string) CostReport {
	key := "cost:" + propertyName
	report, err := s.costs.GetOrLoad(key, s.ttl, func() (CostReport, error) {
		res := s.computeProjectCost(ctx, propertyName)
		if res.Degraded {
			return emptyCostReport(), fmt.Errorf("%w: %w", errDegraded, res.Cause)
		}
		return res.Value, nil
	})
	if err != nil {
		s.degrade(ctx, "project_cost", key, err)
		return emptyCostReport()
	}
	return report
}

// InvestorContribution sums the inflow movements tied to one investor on one
// property's project.
func (s *Service) InvestorContribution(ctx context.Context, investorID, propertyName string) float64 {
	digits := core.DigitsOnly(investorID)
	key := "contribution:" + digits + ":" + propertyName
	amount, err := s.amounts.GetOrLoad(key, s.ttl, func() (float64, error) {
		res := s.computeContribution(ctx, digits, propertyName)
		if res.Degraded {
			return 0, fmt.Errorf("%w: %w", errDegraded, res.Cause)
		}
		return res.Value, nil
	})
	if err != nil {
		s.degrade(ctx, "investor_contribution", key, err)
		return 0
	}
	return amount
}

// RealizedProfit sums the profit-distribution outflows of one property's
// project. An empty investorID sums across all counterparts.
func (s *Service) RealizedProfit(ctx context.Context, propertyName, investorID string) float64 {
	digits := core.DigitsOnly(investorID)
	key := "profit:" + propertyName + ":" + digits
	amount, err := s.amounts.GetOrLoad(key, s.ttl, func() (float64, error) {
		res := s.computeRealizedProfit(ctx, propertyName, digits)
		if res.Degraded {
			return 0, fmt.Errorf("%w: %w", errDegraded, res.Cause)
		}
		return res.Value, nil
	})
	if err != nil {
		s.degrade(ctx, "realized_profit", key, err)
		return 0
	}
	return amount
}

func (s *Service) computeProjectCost(ctx context.Context, propertyName string) Result[CostReport] {
	project, found, err := s.resolve(ctx, propertyName)
	if err != nil {
		return degraded(emptyCostReport(), err)
	}
	if !found {
		return ok(emptyCostReport())
	}

	movements, err := s.ref.Movements(ctx)
	if err != nil {
		return degraded(emptyCostReport(), fmt.Errorf("movements: %w", err))
	}
	categories, err := s.ref.Categories(ctx)
	if err != nil {
		return degraded(emptyCostReport(), fmt.Errorf("categories: %w", err))
	}
	names := s.counterpartNames(ctx)

	cls := newClassifier(categories)
	code := project.Code.String()
	byCategory := map[string]*CostCategory{}
	var order []string
	report := emptyCostReport()

	for _, m := range movements {
		if !belongsTo(m, code) || !hasDirection(m, ledger.DirectionOutflow) {
			continue
		}
		if cls.costExcluded(m) {
			continue
		}
		amount := paidAmount(m)
		if amount == 0 {
			continue
		}

		taxID := core.DigitsOnly(m.Details.CounterpartTaxID)
		item := CostItem{
			Value:               amount,
			CategoryCode:        m.Details.CategoryCode.String(),
			CategoryDescription: cls.categoryDescription(m),
			CounterpartTaxID:    taxID,
			CounterpartName:     names[taxID],
		}
		report.TotalCost += amount
		report.Items = append(report.Items, item)

		bucket, exists := byCategory[item.CategoryCode]
		if !exists {
			bucket = &CostCategory{Code: item.CategoryCode, Description: item.CategoryDescription}
			byCategory[item.CategoryCode] = bucket
			order = append(order, item.CategoryCode)
		}
		bucket.Total += amount
		bucket.Items = append(bucket.Items, item)
	}

	for _, code := range order {
		report.Categories = append(report.Categories, *byCategory[code])
	}
	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Total > report.Categories[j].Total
	})
	return ok(report)
}

func (s *Service) computeContribution(ctx context.Context, investorDigits, propertyName string) Result[float64] {
	project, found, err := s.resolve(ctx, propertyName)
	if err != nil {
		return degraded(0.0, err)
	}
	if !found {
		return ok(0.0)
	}

	movements, err := s.ref.Movements(ctx)
	if err != nil {
		return degraded(0.0, fmt.Errorf("movements: %w", err))
	}

	code := project.Code.String()
	var total float64
	for _, m := range movements {
		if !belongsTo(m, code) || !hasDirection(m, ledger.DirectionInflow) {
			continue
		}
		if !counterpartIs(m, investorDigits) {
			continue
		}
		total += paidAmount(m)
	}
	return ok(total)
}

func (s *Service) computeRealizedProfit(ctx context.Context, propertyName, investorDigits string) Result[float64] {
	project, found, err := s.resolve(ctx, propertyName)
	if err != nil {
		return degraded(0.0, err)
	}
	if !found {
		return ok(0.0)
	}

	movements, err := s.ref.Movements(ctx)
	if err != nil {
		return degraded(0.0, fmt.Errorf("movements: %w", err))
	}

	code := project.Code.String()
	var total float64
	for _, m := range movements {
		if !belongsTo(m, code) || !hasDirection(m, ledger.DirectionOutflow) {
			continue
		}
		if !isProfitDistribution(m) {
			continue
		}
		if investorDigits != "" && !counterpartIs(m, investorDigits) {
			continue
		}
		total += paidAmount(m)
	}
	return ok(total)
}

func (s *Service) resolve(ctx context.Context, propertyName string) (ledger.Project, bool, error) {
	projects, err := s.ref.Projects(ctx)
	if err != nil {
		return ledger.Project{}, false, fmt.Errorf("projects: %w", err)
	}
	project, found := ResolveProject(propertyName, projects, s.log)
	if !found {
		s.log.Debug("no upstream project for property", "property", propertyName)
	}
	return project, found, nil
}

// counterpartNames builds the tax-id → display-name map used for itemized
// listings. The directory is cosmetic; a failed load degrades to empty
// names, not a failed report.
func (s *Service) counterpartNames(ctx context.Context) map[string]string {
	counterparts, err := s.ref.Counterparts(ctx)
	if err != nil {
		s.log.Warn("counterpart directory unavailable, items will carry bare tax ids", "error", err)
		return nil
	}
	names := make(map[string]string, len(counterparts))
	for _, c := range counterparts {
		if id := core.DigitsOnly(c.TaxID); id != "" {
			names[id] = c.DisplayName()
		}
	}
	return names
}

func (s *Service) degrade(ctx context.Context, operation, key string, cause error) {
	s.log.Warn("aggregation degraded to zero result",
		"operation", operation,
		"key", key,
		"error", cause)
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishAggregationDegraded(ctx, operation, key, cause.Error()); err != nil {
		s.log.Error("failed to publish degraded event", "operation", operation, "error", err)
	}
}
