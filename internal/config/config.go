package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the API server configuration
type Config struct {
	Environment   string
	ServerAddress string
	DatabasePath  string
	Auth          AuthConfig
	Mail          MailConfig
	Chat          ChatConfig
	Cleanup       CleanupConfig
	CORS          CORSConfig
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig holds token and verification configuration
type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	AutoVerify          bool // accounts are created verified, no code step required
	VerificationCodeTTL time.Duration
}

// MailConfig holds SMTP settings for verification e-mails
type MailConfig struct {
	Server   string
	Port     int
	Username string
	Password string
}

// Enabled reports whether enough credentials exist to send real e-mail
func (m MailConfig) Enabled() bool {
	return m.Username != "" && m.Password != ""
}

// ChatConfig holds the chat model settings
type ChatConfig struct {
	APIKey string
	Model  string
}

// CleanupConfig holds the maintenance schedule
type CleanupConfig struct {
	Schedule             string // cron spec
	UnverifiedAccountTTL time.Duration
}

// DefaultJWTSecret is only suitable for local development
const DefaultJWTSecret = "change-me-in-production-secret-key"

// Load loads server configuration from environment variables with defaults
func Load() (*Config, error) {
	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")

	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	codeTTL, err := getDuration("VERIFICATION_CODE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	unverifiedTTL, err := getDuration("UNVERIFIED_ACCOUNT_TTL", 72*time.Hour)
	if err != nil {
		return nil, err
	}
	mailPort, err := getInt("MAIL_PORT", 587)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment:   getEnv("APP_ENV", "production"),
		ServerAddress: getEnv("SERVER_ADDRESS", ":8000"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/startera.db"),
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", DefaultJWTSecret),
			TokenTTL:            tokenTTL,
			AutoVerify:          getEnv("AUTO_VERIFY", "false") == "true",
			VerificationCodeTTL: codeTTL,
		},
		Mail: MailConfig{
			Server:   getEnv("MAIL_SERVER", "mail.plan-iq.net"),
			Port:     mailPort,
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
		},
		Chat: ChatConfig{
			APIKey: os.Getenv("GOOGLE_API_KEY"),
			Model:  getEnv("CHAT_MODEL", "gemini-2.5-flash"),
		},
		Cleanup: CleanupConfig{
			Schedule:             getEnv("CLEANUP_SCHEDULE", "@hourly"),
			UnverifiedAccountTTL: unverifiedTTL,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseCommaSeparatedList(corsOrigins),
		},
	}, nil
}

// Validate rejects settings the server must not run with
func (c *Config) Validate() error {
	if c.Environment == "production" && c.Auth.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set when APP_ENV is production")
	}
	return nil
}

// ClientConfig holds the terminal client configuration
type ClientConfig struct {
	Environment   string
	APIURL        string
	StatePath     string
	RedisAddr     string // when set, client state lives in redis instead of the sqlite file
	RedisPrefix   string
	DemoDelay     time.Duration
	ToastTimeout  time.Duration
	HTTPTimeout   time.Duration
	AfterRegister string // view shown after a successful registration: verify or login
}

// LoadClient loads client configuration from environment variables with defaults
func LoadClient() (*ClientConfig, error) {
	demoDelay, err := getDuration("STARTERA_DEMO_DELAY", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	toastTimeout, err := getDuration("STARTERA_TOAST_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := getDuration("STARTERA_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	afterRegister := getEnv("STARTERA_AFTER_REGISTER", "verify")
	if afterRegister != "verify" && afterRegister != "login" {
		return nil, fmt.Errorf("STARTERA_AFTER_REGISTER must be verify or login, got %q", afterRegister)
	}

	return &ClientConfig{
		Environment:   getEnv("APP_ENV", "production"),
		APIURL:        strings.TrimRight(getEnv("STARTERA_API_URL", "http://127.0.0.1:8000/api"), "/"),
		StatePath:     getEnv("STARTERA_STATE_PATH", defaultStatePath()),
		RedisAddr:     os.Getenv("STARTERA_REDIS_ADDR"),
		RedisPrefix:   getEnv("STARTERA_REDIS_PREFIX", "startera:"),
		DemoDelay:     demoDelay,
		ToastTimeout:  toastTimeout,
		HTTPTimeout:   httpTimeout,
		AfterRegister: afterRegister,
	}, nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./.startera/state.db"
	}
	return filepath.Join(home, ".startera", "state.db")
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return []string{}
	}

	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
