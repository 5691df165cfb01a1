package constants

import "time"

// Auth flow views
const (
	ViewLogin    = "login"
	ViewRegister = "register"
	ViewVerify   = "verify"
)

// Client routes used for navigation
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// Persisted client key-value entries
const (
	KeyToken      = "token"
	KeyUserEmail  = "userEmail"
	KeyUserName   = "userName"
	KeyIsLoggedIn = "isLoggedIn"
	KeyTheme      = "theme"
	KeyLanguage   = "app_lang"
	KeyUsersDB    = "users_db" // demo-only registered users
)

// Theme values
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Language values
const (
	LanguageTurkish = "tr"
	LanguageEnglish = "en"
	LanguageArabic  = "ar"
)

// Toast kinds
const (
	ToastDefault = "default"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Demo fallback values
const (
	// DemoToken is the placeholder session token synthesized when the API is unreachable
	DemoToken = "demo-token"

	// DemoVerificationCode is the only code accepted by the verify step in demo mode
	DemoVerificationCode = "123456"
)

// Validation limits
const (
	MinPasswordLength      = 6
	VerificationCodeLength = 6
	MaxEmailLength         = 254
)

// Job status values
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job type values
const (
	JobTypeVerificationMail = "verification_mail"
)

// Chat role values
const (
	ChatRoleUser = "user"
	ChatRoleBot  = "bot"
)

// Timeout and interval constants
const (
	// ToastTimeout is how long a toast stays visible
	ToastTimeout = 3 * time.Second

	// DemoFallbackDelay is the pause before the demo path proceeds after a network failure
	DemoFallbackDelay = 1500 * time.Millisecond

	// HTTPClientTimeout is the timeout for client requests to the auth API
	HTTPClientTimeout = 30 * time.Second

	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 30 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout
	ServerWriteTimeout = 120 * time.Second

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 120 * time.Second

	// ChatResponderTimeout bounds a single call to the chat model
	ChatResponderTimeout = 60 * time.Second
)

// Job processing constants
const (
	// JobWorkerPollInterval is how often the worker checks for pending jobs
	JobWorkerPollInterval = 2 * time.Second

	// JobStaleThreshold is how long a job can be in "running" state before considered stale
	JobStaleThreshold = 10 * time.Minute

	// JobMaxAttempts is how many times a job is tried before it is marked failed
	JobMaxAttempts = 3

	// JobHistoryKeepCount is how many finished jobs are kept
	JobHistoryKeepCount = 200

	// JobHistoryCleanupInterval is how often finished job records are pruned
	JobHistoryCleanupInterval = 1 * time.Hour
)

// Chat model circuit breaker
const (
	// ChatBreakerThreshold is the number of consecutive failures that opens the breaker
	ChatBreakerThreshold = 5

	// ChatBreakerCooldown is how long the breaker stays open before a trial call
	ChatBreakerCooldown = 60 * time.Second

	// ChatBreakerHalfOpenSuccesses is the number of trial successes that close it again
	ChatBreakerHalfOpenSuccesses = 2
)

// Chat fallback replies
const (
	ChatReplyMissingKey = "API Key Missing"
	ChatReplyFailure    = "Üzgünüm, şu an yanıt veremiyorum."
)
