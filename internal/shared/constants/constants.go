package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderActiveStaffID = "X-Active-Staff-Id"

	// Context keys set by the session middleware
	ContextKeyStaffID      = "staff_id"
	ContextKeyUserID       = "user_id"
	ContextKeyMerchantID   = "merchant_id"
	ContextKeyLocationID   = "location_id"
	ContextKeyRole         = "role"
	ContextKeyPermissions  = "permissions"
	ContextKeySessionToken = "session_token"
	ContextKeyRequestID    = "request_id"
	ContextKeySessionType  = "session_type"

	// Backends for auth state
	BackendMemory = "memory"
	BackendRedis  = "redis"

	// Database table names
	TableStaff          = "staff"
	TableStaffLocations = "staff_locations"
	TableAuditLogs      = "audit_logs"
	TableLocations      = "locations"
	TableMerchants      = "merchant_accounts"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
)
