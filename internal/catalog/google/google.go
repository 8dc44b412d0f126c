// Package google reads the property catalog and investor registry from a
// Google spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"aporte/internal/catalog"
	"aporte/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultPropertiesSheet = "Imoveis"
	defaultInvestorsSheet  = "Investidores"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	propertiesSheet string
	investorsSheet  string
}

// Ensure interface conformance
var (
	_ catalog.PropertyReader = (*Client)(nil)
	_ catalog.InvestorReader = (*Client)(nil)
)

// NewFromEnv creates a Sheets-backed catalog using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: PROPERTIES_SHEET_NAME (default "Imoveis"),
// INVESTORS_SHEET_NAME (default "Investidores").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	properties := strings.TrimSpace(os.Getenv("PROPERTIES_SHEET_NAME"))
	if properties == "" {
		properties = defaultPropertiesSheet
	}
	investors := strings.TrimSpace(os.Getenv("INVESTORS_SHEET_NAME"))
	if investors == "" {
		investors = defaultInvestorsSheet
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		propertiesSheet: properties,
		investorsSheet:  investors,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListProperties reads and parses the whole properties sheet. The catalog is
// a snapshot: every call re-reads the sheet.
func (c *Client) ListProperties(ctx context.Context) ([]core.Property, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:L", c.propertiesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	properties := parseProperties(resp.Values)
	slog.DebugContext(ctx, "property catalog loaded", "sheet", c.propertiesSheet, "count", len(properties))
	return properties, nil
}

// ListInvestors reads and parses the investor registry sheet.
func (c *Client) ListInvestors(ctx context.Context) ([]core.Investor, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:D", c.investorsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseInvestors(resp.Values), nil
}

// FindInvestor matches email+password against the registry sheet. This is
// the placeholder credential scheme inherited from the spreadsheet workflow.
func (c *Client) FindInvestor(ctx context.Context, email, password string) (core.Investor, bool, error) {
	investors, err := c.ListInvestors(ctx)
	if err != nil {
		return core.Investor{}, false, err
	}
	return matchInvestor(investors, email, password)
}

// matchInvestor is the shared credential-matching rule: case-insensitive
// email, exact password.
func matchInvestor(investors []core.Investor, email, password string) (core.Investor, bool, error) {
	email = strings.TrimSpace(email)
	for _, inv := range investors {
		if strings.EqualFold(inv.Email, email) && inv.Password == password {
			return inv, true, nil
		}
	}
	return core.Investor{}, false, nil
}
