package finance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aporte/internal/ledger"
)

// fakeRef serves fixed collections and counts loads per collection.
type fakeRef struct {
	mu           sync.Mutex
	projects     []ledger.Project
	movements    []ledger.Movement
	counterparts []ledger.Counterpart
	categories   []ledger.Category
	calls        map[string]int
	fail         map[string]error
}

func newFakeRef() *fakeRef {
	return &fakeRef{calls: map[string]int{}, fail: map[string]error{}}
}

func (f *fakeRef) load(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeRef) Projects(context.Context) ([]ledger.Project, error) {
	return f.projects, f.load("projects")
}
func (f *fakeRef) Movements(context.Context) ([]ledger.Movement, error) {
	return f.movements, f.load("movements")
}
func (f *fakeRef) Counterparts(context.Context) ([]ledger.Counterpart, error) {
	return f.counterparts, f.load("counterparts")
}
func (f *fakeRef) Categories(context.Context) ([]ledger.Category, error) {
	return f.categories, f.load("categories")
}

func (f *fakeRef) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func movement(project, category, direction, taxID string, paid float64) ledger.Movement {
	return ledger.Movement{
		Details: ledger.MovementDetails{
			ProjectCode:      ledger.FlexString(project),
			CategoryCode:     ledger.FlexString(category),
			Direction:        direction,
			CounterpartTaxID: taxID,
		},
		Summary: ledger.MovementSummary{PaidAmount: paid},
	}
}

func TestResolveProjectNormalization(t *testing.T) {
	projects := []ledger.Project{
		{Code: "10", Name: "Edifício Jaraguá"},
		{Code: "11", Name: "casa coracoes"},
	}

	p, found := ResolveProject("  Casa Corações ", projects, nil)
	if !found || p.Code.String() != "11" {
		t.Fatalf("accent/case/space variants should resolve, got %v %v", p, found)
	}
	p, found = ResolveProject("EDIFICIO JARAGUA", projects, nil)
	if !found || p.Code.String() != "10" {
		t.Fatalf("got %v %v", p, found)
	}
	if _, found := ResolveProject("inexistente", projects, nil); found {
		t.Fatal("unknown name must resolve to none")
	}
	if _, found := ResolveProject("   ", projects, nil); found {
		t.Fatal("blank name must resolve to none")
	}
}

func TestResolveProjectFirstMatchWins(t *testing.T) {
	projects := []ledger.Project{
		{Code: "1", Name: "Casa Corações"},
		{Code: "2", Name: "casa coracoes"},
	}
	p, found := ResolveProject("Casa Corações", projects, nil)
	if !found || p.Code.String() != "1" {
		t.Fatalf("first match should win, got %v", p.Code)
	}
}

func TestProjectCostExclusions(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa Corações"}}
	ref.categories = []ledger.Category{
		{Code: "2.10.98", Description: "Distribuição de Lucros"},
		{Code: "1.01.02", Description: "Materiais de Obra"},
		{Code: "3.05.01", Description: "Devolução de capital ao investidor"},
	}
	ref.movements = []ledger.Movement{
		movement("7", "2.10.98", "P", "111", 5000),   // excluded: fixed code
		movement("7", "3.05.01", "P", "222", 3000),   // excluded: capital return to investor
		movement("7", "1.01.02", "P", "333", 1234.5), // ordinary expense
		movement("7", "1.01.02", "R", "333", 999),    // wrong direction
		movement("8", "1.01.02", "P", "333", 999),    // other project
		movement("7", "1.01.02", "P", "333", 0),      // zero amount
	}

	s := NewService(ref, nil)
	report := s.ProjectCost(context.Background(), "casa coracoes")

	if report.TotalCost != 1234.5 {
		t.Fatalf("TotalCost = %v, want 1234.5", report.TotalCost)
	}
	if len(report.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(report.Items))
	}
	if len(report.Categories) != 1 || report.Categories[0].Code != "1.01.02" {
		t.Fatalf("categories = %+v", report.Categories)
	}
	if report.Categories[0].Description != "Materiais de Obra" {
		t.Fatalf("category description = %q", report.Categories[0].Description)
	}
}

func TestProjectCostExcludesByInlineDescription(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	// No category directory entry: the classifier falls back to the
	// movement's inline description.
	m := movement("7", "9.99.99", "P", "111", 800)
	m.Details.CategoryDesc = "Devolução de Capital ao Investidor"
	ref.movements = []ledger.Movement{
		m,
		movement("7", "1.01.01", "P", "222", 100),
	}

	s := NewService(ref, nil)
	if got := s.ProjectCost(context.Background(), "Casa").TotalCost; got != 100 {
		t.Fatalf("TotalCost = %v, want 100", got)
	}
}

func TestProjectCostCategoryOrdering(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.categories = []ledger.Category{
		{Code: "A", Description: "Acabamento"},
		{Code: "B", Description: "Fundação"},
	}
	ref.movements = []ledger.Movement{
		movement("7", "A", "P", "1", 100),
		movement("7", "B", "P", "2", 400),
		movement("7", "A", "P", "3", 50),
	}

	report := NewService(ref, nil).ProjectCost(context.Background(), "Casa")
	if len(report.Categories) != 2 {
		t.Fatalf("categories = %d", len(report.Categories))
	}
	if report.Categories[0].Code != "B" || report.Categories[0].Total != 400 {
		t.Fatalf("expected B/400 first, got %+v", report.Categories[0])
	}
	if report.Categories[1].Code != "A" || report.Categories[1].Total != 150 {
		t.Fatalf("expected A/150 second, got %+v", report.Categories[1])
	}
	if len(report.Items) != 3 {
		t.Fatalf("flat items = %d, want 3", len(report.Items))
	}
}

func TestProjectCostCounterpartNames(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.counterparts = []ledger.Counterpart{
		{TaxID: "12.345.678/0001-90", Name: "Construtora Alfa LTDA", TradeName: "Alfa"},
	}
	ref.movements = []ledger.Movement{
		movement("7", "X", "P", "12345678000190", 10),
	}

	report := NewService(ref, nil).ProjectCost(context.Background(), "Casa")
	if len(report.Items) != 1 || report.Items[0].CounterpartName != "Alfa" {
		t.Fatalf("items = %+v", report.Items)
	}
}

func TestInvestorContribution(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.movements = []ledger.Movement{
		movement("7", "C1", "R", "123.456.789-00", 1000),
		movement("7", "C1", "R", "12345678900", 2000),
		movement("7", "C1", "R", "98765432100", 500), // someone else's inflow
		movement("7", "C1", "P", "12345678900", 700), // outflow, not a contribution
	}

	s := NewService(ref, nil)
	if got := s.InvestorContribution(context.Background(), "12345678900", "Casa"); got != 3000 {
		t.Fatalf("contribution = %v, want 3000", got)
	}
	if got := s.InvestorContribution(context.Background(), "000.000.000-00", "Casa"); got != 0 {
		t.Fatalf("unknown investor contribution = %v, want 0", got)
	}
}

func TestRealizedProfitScoping(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.movements = []ledger.Movement{
		movement("7", ProfitDistributionCategory, "P", "11111111111", 300),
		movement("7", ProfitDistributionCategory, "P", "22222222222", 700),
		movement("7", "1.01.01", "P", "11111111111", 9999), // not a distribution
	}

	s := NewService(ref, nil)
	if got := s.RealizedProfit(context.Background(), "Casa", ""); got != 1000 {
		t.Fatalf("unscoped profit = %v, want 1000", got)
	}
	if got := s.RealizedProfit(context.Background(), "Casa", "111.111.111-11"); got != 300 {
		t.Fatalf("scoped profit = %v, want 300", got)
	}
}

func TestUnresolvedPropertyYieldsZero(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Outra Obra"}}

	s := NewService(ref, nil)
	report := s.ProjectCost(context.Background(), "Inexistente")
	if report.TotalCost != 0 || len(report.Items) != 0 {
		t.Fatalf("unresolved property should yield an empty report, got %+v", report)
	}
	if got := s.InvestorContribution(context.Background(), "12345678900", "Inexistente"); got != 0 {
		t.Fatalf("contribution = %v, want 0", got)
	}
	// Resolution misses are normal outcomes and are cached.
	s.ProjectCost(context.Background(), "Inexistente")
	if n := ref.callCount("projects"); n > 2 {
		t.Fatalf("miss result should be cached, projects loaded %d times", n)
	}
}

func TestUpstreamFailureDegradesToZero(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.fail["movements"] = errors.New("upstream down")

	s := NewService(ref, nil)
	if got := s.InvestorContribution(context.Background(), "12345678900", "Casa"); got != 0 {
		t.Fatalf("degraded contribution = %v, want 0", got)
	}
	report := s.ProjectCost(context.Background(), "Casa")
	if report.TotalCost != 0 || report.Items == nil || report.Categories == nil {
		t.Fatalf("degraded report should be empty but non-nil, got %+v", report)
	}

	// Degraded zeros are not memoized: recovery is visible on the next call.
	ref.mu.Lock()
	delete(ref.fail, "movements")
	ref.movements = []ledger.Movement{movement("7", "C", "R", "12345678900", 42)}
	ref.mu.Unlock()
	if got := s.InvestorContribution(context.Background(), "12345678900", "Casa"); got != 42 {
		t.Fatalf("post-recovery contribution = %v, want 42", got)
	}
}

func TestAggregationIdempotentWithinTTL(t *testing.T) {
	ref := newFakeRef()
	ref.projects = []ledger.Project{{Code: "7", Name: "Casa"}}
	ref.movements = []ledger.Movement{
		movement("7", "C1", "R", "12345678900", 1000),
	}

	s := NewService(ref, nil)
	first := s.InvestorContribution(context.Background(), "123.456.789-00", "Casa")
	second := s.InvestorContribution(context.Background(), "12345678900", "Casa")
	if first != second || first != 1000 {
		t.Fatalf("results differ across calls: %v vs %v", first, second)
	}
	// Equivalent calls share one cache key, so reference data loads once.
	if n := ref.callCount("movements"); n != 1 {
		t.Fatalf("movements loaded %d times, want 1", n)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishAggregationDegraded(_ context.Context, operation, key, cause string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, operation+"|"+key)
	return nil
}

func TestDegradedEventsPublished(t *testing.T) {
	ref := newFakeRef()
	ref.fail["projects"] = errors.New("upstream down")

	pub := &recordingPublisher{}
	s := NewService(ref, nil, WithPublisher(pub))
	s.RealizedProfit(context.Background(), "Casa", "")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 || pub.events[0] != "realized_profit|profit:Casa:" {
		t.Fatalf("events = %v", pub.events)
	}
}
