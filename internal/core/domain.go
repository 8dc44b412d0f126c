// Package core holds the domain records shared across the application:
// the property catalog entries read from the spreadsheet and the investor
// registry used by the login flow.
package core

import (
	"errors"
	"strings"
)

// Property status values as they appear in the spreadsheet.
const (
	StatusInProgress = "em_andamento"
	StatusCompleted  = "concluida"
)

var ErrInvalidProperty = errors.New("invalid property record")

type (
	// Property is one real-estate operation as declared in the spreadsheet.
	// Name doubles as the join key against the upstream ledger's project
	// name. Records are read-only snapshots rebuilt on every catalog load.
	Property struct {
		ID             string      `json:"id"`
		Name           string      `json:"propertyName"`
		City           string      `json:"city"`
		State          string      `json:"state"`
		Status         string      `json:"status"`
		ExpectedReturn string      `json:"expectedReturn"`
		TargetROI      string      `json:"targetRoi"`
		Timeline       []Milestone `json:"timeline,omitempty"`
		Documents      []string    `json:"documents,omitempty"`
	}

	// Milestone is a named date in a property's timeline.
	Milestone struct {
		Label string `json:"label"`
		Date  string `json:"date"`
	}

	// Investor is one row of the investor registry sheet. The password is a
	// plain spreadsheet cell; the login scheme is a known-weak placeholder.
	Investor struct {
		Name     string `json:"name"`
		TaxID    string `json:"taxId"`
		Email    string `json:"email"`
		Password string `json:"-"`
	}
)

// Validate checks the minimal shape the aggregation core depends on.
// Descriptive fields are free-text and deliberately unchecked.
func (p Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProperty
	}
	switch p.Status {
	case "", StatusInProgress, StatusCompleted:
		return nil
	default:
		return ErrInvalidProperty
	}
}
