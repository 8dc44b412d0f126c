package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Admin surface
	AdminToken string

	// Ledger API (Omie-compatible ERP)
	LedgerBaseURL     string
	LedgerAppKey      string
	LedgerAppSecret   string
	LedgerCallTimeout time.Duration
	LedgerMaxRetries  int
	LedgerBackoff     time.Duration

	// Caching
	CacheTTL      time.Duration
	MaxDrainPages int

	// Catalog backend selection
	CatalogBackend string

	// Google Sheets (catalog backend "sheets")
	GoogleSpreadsheetID      string
	GooglePropertiesSheet    string
	GoogleInvestorsSheet     string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// AMQP
	AMQPURL           string
	AMQPExchange      string
	AMQPEventsQueue   string
	AMQPCommandsQueue string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		LedgerBaseURL:     getEnv("LEDGER_BASE_URL", ""),
		LedgerAppKey:      getEnv("LEDGER_APP_KEY", ""),
		LedgerAppSecret:   getEnv("LEDGER_APP_SECRET", ""),
		LedgerCallTimeout: getEnvDuration("LEDGER_CALL_TIMEOUT", 15*time.Second),
		LedgerMaxRetries:  getEnvInt("LEDGER_MAX_RETRIES", 3),
		LedgerBackoff:     getEnvDuration("LEDGER_BACKOFF", time.Second),

		CacheTTL:      getEnvDuration("CACHE_TTL", 15*time.Minute),
		MaxDrainPages: getEnvInt("MAX_DRAIN_PAGES", 500),

		CatalogBackend: getEnv("CATALOG_BACKEND", "memory"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GooglePropertiesSheet:    getEnv("PROPERTIES_SHEET_NAME", "Imoveis"),
		GoogleInvestorsSheet:     getEnv("INVESTORS_SHEET_NAME", "Investidores"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "aporte"),
		AMQPEventsQueue:   getEnv("AMQP_EVENTS_QUEUE", "aggregation_degraded"),
		AMQPCommandsQueue: getEnv("AMQP_COMMANDS_QUEUE", "cache_clear"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// All three ledger settings empty means the ledger is deliberately
	// disabled; a partial set is a mistake.
	ledgerSet := 0
	for _, v := range []string{c.LedgerBaseURL, c.LedgerAppKey, c.LedgerAppSecret} {
		if v != "" {
			ledgerSet++
		}
	}
	if ledgerSet > 0 && ledgerSet < 3 {
		errors = append(errors, "LEDGER_BASE_URL, LEDGER_APP_KEY and LEDGER_APP_SECRET must be set together (or all left empty to disable the ledger)")
	}
	if c.LedgerBaseURL != "" {
		if parsedURL, err := url.Parse(c.LedgerBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid ledger base URL '%s': %v", c.LedgerBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid ledger base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.LedgerCallTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid ledger call timeout %v: must be at least 1 second", c.LedgerCallTimeout))
	}
	if c.LedgerMaxRetries < 0 || c.LedgerMaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid ledger max retries %d: must be between 0 and 10", c.LedgerMaxRetries))
	}
	if c.LedgerBackoff < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid ledger backoff %v: must be at least 100ms", c.LedgerBackoff))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.MaxDrainPages < 1 {
		errors = append(errors, fmt.Sprintf("invalid max drain pages %d: must be at least 1", c.MaxDrainPages))
	}

	// Validate catalog backend
	validBackends := []string{"memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.CatalogBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid catalog backend '%s': must be one of %v", c.CatalogBackend, validBackends))
	}

	// Validate Google Sheets configuration if backend is sheets
	if c.CatalogBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GooglePropertiesSheet == "" {
			errors = append(errors, "properties sheet name cannot be empty when using sheets backend")
		}
		if c.GoogleInvestorsSheet == "" {
			errors = append(errors, "investors sheet name cannot be empty when using sheets backend")
		}

		// Check if service account file exists (if specified)
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP configuration if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsQueue == "" {
			errors = append(errors, "AMQP events queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPCommandsQueue == "" {
			errors = append(errors, "AMQP commands queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// LedgerEnabled reports whether ledger credentials are configured.
func (c *Config) LedgerEnabled() bool {
	return c.LedgerBaseURL != "" && c.LedgerAppKey != "" && c.LedgerAppSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
