package constants

// Pagination
const (
	FirstPage       = 1
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// Comments default to a larger page; the UI renders them as a flat thread.
	DefaultCommentPageSize = 20
)

// Context / session keys
const (
	SessionCookieName  = "taskhub_session"
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)

// Auth
const (
	MinPasswordLength = 8
)

// Attachment limits (defaults, overridable via config)
const (
	DefaultMaxFileSize  = 10 * 1024 * 1024
	DefaultMaxFileCount = 5
)
