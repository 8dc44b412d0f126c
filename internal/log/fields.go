package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldProperty   = "property"
	FieldInvestorID = "investor_id"
	FieldProject    = "project_code"
	FieldCacheKey   = "cache_key"
	FieldPage       = "page"
	FieldPages      = "pages"
	FieldItems      = "items"
	FieldEndpoint   = "endpoint"
	FieldUpstream   = "upstream_method"
	FieldAttempt    = "attempt"
	FieldBackoff    = "backoff"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentRefData  = "refdata"
	ComponentFinance  = "finance"
	ComponentCatalog  = "catalog"
	ComponentCache    = "cache"
	ComponentAMQP     = "amqp"
	ComponentSecurity = "security"
)
