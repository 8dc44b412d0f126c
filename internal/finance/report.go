package finance

// CostItem is one cost-relevant ledger entry in an itemized listing.
// Amounts are float64 currency units end to end; the precision
// characteristic of the upstream is preserved deliberately.
type CostItem struct {
	Value               float64 `json:"value"`
	CategoryCode        string  `json:"categoryCode"`
	CategoryDescription string  `json:"categoryDescription"`
	CounterpartTaxID    string  `json:"counterpartTaxId,omitempty"`
	CounterpartName     string  `json:"counterpartName,omitempty"`
}

// CostCategory groups cost items under one category code.
type CostCategory struct {
	Code        string     `json:"categoryCode"`
	Description string     `json:"categoryDescription"`
	Total       float64    `json:"total"`
	Items       []CostItem `json:"items"`
}

// CostReport is the Project Cost Aggregator's output. Categories are ordered
// descending by subtotal.
type CostReport struct {
	TotalCost  float64        `json:"totalCost"`
	Categories []CostCategory `json:"categories"`
	Items      []CostItem     `json:"items"`
}

// emptyCostReport keeps "no data" and "error" indistinguishable to callers:
// both are an empty report, never nil slices.
func emptyCostReport() CostReport {
	return CostReport{Categories: []CostCategory{}, Items: []CostItem{}}
}

// Result tags an aggregation outcome so observability can tell a genuine
// zero from an upstream failure. External callers still receive the plain
// value; Degraded outcomes are logged and published, not raised.
type Result[T any] struct {
	Value    T
	Degraded bool
	Cause    error
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func degraded[T any](zero T, cause error) Result[T] {
	return Result[T]{Value: zero, Degraded: true, Cause: cause}
}
