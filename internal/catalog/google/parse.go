package google

import (
	"fmt"
	"strings"

	"aporte/internal/core"
)

// Sheet layouts. Properties: id, name, city, state, status, expected return,
// target ROI, then milestone pairs (label;date) and document links in the
// trailing columns. Investors: name, tax id, email, password.
const (
	colPropertyID = iota
	colPropertyName
	colPropertyCity
	colPropertyState
	colPropertyStatus
	colPropertyReturn
	colPropertyROI
	colPropertyTimeline
	colPropertyDocs
)

// parseProperties converts a values matrix (as returned by the Sheets API)
// into property records. Header rows and rows failing validation are
// skipped; the catalog is best-effort.
func parseProperties(values [][]any) []core.Property {
	var out []core.Property
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) <= colPropertyName {
			continue
		}
		// Skip a likely header row.
		if i == 0 && strings.EqualFold(cols[colPropertyID], "id") {
			continue
		}
		p := core.Property{
			ID:             cols[colPropertyID],
			Name:           cols[colPropertyName],
			City:           safeGet(cols, colPropertyCity),
			State:          safeGet(cols, colPropertyState),
			Status:         strings.ToLower(safeGet(cols, colPropertyStatus)),
			ExpectedReturn: safeGet(cols, colPropertyReturn),
			TargetROI:      safeGet(cols, colPropertyROI),
			Timeline:       parseTimeline(safeGet(cols, colPropertyTimeline)),
			Documents:      splitList(safeGet(cols, colPropertyDocs)),
		}
		if err := p.Validate(); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseInvestors converts registry rows into investor records. Rows without
// both an email and a password cannot log in and are dropped.
func parseInvestors(values [][]any) []core.Investor {
	var out []core.Investor
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) < 4 {
			continue
		}
		if i == 0 && strings.EqualFold(cols[0], "nome") {
			continue
		}
		inv := core.Investor{
			Name:     cols[0],
			TaxID:    core.DigitsOnly(cols[1]),
			Email:    cols[2],
			Password: cols[3],
		}
		if inv.Email == "" || inv.Password == "" {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// parseTimeline parses "label:date" pairs separated by newlines or
// semicolons, e.g. "Lançamento:2024-01-10; Entrega:2025-06-01".
func parseTimeline(s string) []core.Milestone {
	var out []core.Milestone
	for _, part := range splitList(s) {
		label, date, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		label, date = strings.TrimSpace(label), strings.TrimSpace(date)
		if label == "" || date == "" {
			continue
		}
		out = append(out, core.Milestone{Label: label, Date: date})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
