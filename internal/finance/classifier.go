package finance

import (
	"strings"

	"aporte/internal/core"
	"aporte/internal/ledger"
)

// ProfitDistributionCategory is the fixed upstream category code that
// identifies profit-distribution movements. It is an exclusion filter for
// cost aggregation and the inclusion filter for profit aggregation.
const ProfitDistributionCategory = "2.10.98"

// Normalized description fragments used by the cost-exclusion rules.
const (
	capitalReturnFragment = "devolucao de capital"
	investorFragment      = "investidor"
	profitShareFragment   = "distribuicao de lucros"
)

// classifier evaluates the per-movement predicates. Each aggregator applies
// them in a single pass; the predicate semantics are identical across
// aggregators.
type classifier struct {
	categories map[string]ledger.Category
}

func newClassifier(categories []ledger.Category) *classifier {
	byCode := make(map[string]ledger.Category, len(categories))
	for _, c := range categories {
		byCode[c.Code.String()] = c
	}
	return &classifier{categories: byCode}
}

// belongsTo matches the movement's project code, compared as string.
func belongsTo(m ledger.Movement, projectCode string) bool {
	code := m.Details.ProjectCode.String()
	return code != "" && code == projectCode
}

// hasDirection matches the movement's flow direction flag, case-normalized.
func hasDirection(m ledger.Movement, direction string) bool {
	return strings.EqualFold(strings.TrimSpace(m.Details.Direction), direction)
}

// categoryDescription resolves the movement's category code against the
// directory, falling back to any inline description on the movement itself,
// then to the raw code.
func (c *classifier) categoryDescription(m ledger.Movement) string {
	code := m.Details.CategoryCode.String()
	if cat, ok := c.categories[code]; ok && strings.TrimSpace(cat.Description) != "" {
		return cat.Description
	}
	if desc := strings.TrimSpace(m.Details.CategoryDesc); desc != "" {
		return desc
	}
	return code
}

// costExcluded applies the exclusion rules for cost aggregation: capital
// returns to investors and profit distributions (by description or by the
// fixed category code) are not project costs.
func (c *classifier) costExcluded(m ledger.Movement) bool {
	if m.Details.CategoryCode.String() == ProfitDistributionCategory {
		return true
	}
	desc := core.NormalizeName(c.categoryDescription(m))
	if strings.Contains(desc, capitalReturnFragment) && strings.Contains(desc, investorFragment) {
		return true
	}
	return strings.Contains(desc, profitShareFragment)
}

// isProfitDistribution applies the inclusion rule for profit aggregation.
// The code is authoritative here; descriptions are not consulted.
func isProfitDistribution(m ledger.Movement) bool {
	return m.Details.CategoryCode.String() == ProfitDistributionCategory
}

// paidAmount is the realized paid amount; zero means "nothing to add".
func paidAmount(m ledger.Movement) float64 {
	return m.Summary.PaidAmount
}

// counterpartIs matches the movement's counterpart tax id against an
// investor id, both digits-only normalized.
func counterpartIs(m ledger.Movement, investorDigits string) bool {
	return investorDigits != "" && core.DigitsOnly(m.Details.CounterpartTaxID) == investorDigits
}
