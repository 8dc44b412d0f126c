// Package catalog defines the ports for the property catalog and investor
// registry, both reconstructed from the spreadsheet on every load.
package catalog

import (
	"context"

	"aporte/internal/core"
)

// Ports for outbound adapters.
type (
	// PropertyReader lists the property/project records the aggregation
	// core and the API operate over.
	PropertyReader interface {
		ListProperties(ctx context.Context) ([]core.Property, error)
	}

	// InvestorReader exposes the investor registry used by the login flow.
	InvestorReader interface {
		ListInvestors(ctx context.Context) ([]core.Investor, error)
		// FindInvestor matches credentials against the registry. A miss
		// returns found=false, not an error.
		FindInvestor(ctx context.Context, email, password string) (core.Investor, bool, error)
	}
)
