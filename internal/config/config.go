package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Data service
	DatabaseURL    string        // "file:marks.db", "libsql://db.turso.io?authToken=..." or "postgres://..."
	DatabaseWait   time.Duration // how long to wait for a hosted database at boot (retry settings shared with Redis)
	JWTSecret      string        // HS256 key for session tokens
	SessionTTL     time.Duration // lifetime of a sign-in (default: 7 days)
	SecureCookies  bool          // set the Secure flag on cookies (enable behind TLS)
	FeedBackend    string        // "redis" | "memory"
	FeedBufferSize int           // per-subscriber event buffer
	PageCacheTTL   time.Duration // TTL of cached page snapshots
	LiveCheck      time.Duration // how often open live views re-check their session

	// Google sign-in (disabled when ClientID is empty)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Homepage import (disabled when ImportFiles is empty)
	ImportFiles    []string      // Homepage bookmarks.yaml and/or services.yaml paths
	ImportOwner    string        // email of the account receiving imported bookmarks
	ImportInterval time.Duration // interval between imports (default: 24h)

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts  []string // optional, restrict access to specific Host headers (also websocket origins)
	AllowedCIDRS  []string // optional, restrict access to ops endpoints by IP
	TrustProxy    bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	AuthRateBurst int      // burst of sign-in attempts per IP
	AuthRatePerMn int      // refill of sign-in attempts per IP per minute
	APIRateBurst  int      // burst of API writes per user
	APIRatePerMn  int      // refill of API writes per user per minute
}

func Load() *Config {
	// A missing .env is fine, production sets real variables.
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MARKS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKS_PRETTY_LOG", true),

		// Data service
		DatabaseURL:    getenv("MARKS_DATABASE_URL", "file:marks.db"),
		DatabaseWait:   mustDuration("MARKS_DATABASE_CONNECT_TIMEOUT", 30*time.Second),
		JWTSecret:      requireEnv("MARKS_JWT_SECRET"),
		SessionTTL:     mustDuration("MARKS_SESSION_TTL", 7*24*time.Hour),
		SecureCookies:  mustBool("MARKS_SECURE_COOKIES", false),
		FeedBackend:    getenv("MARKS_FEED_BACKEND", "redis"),
		FeedBufferSize: getenvInt("MARKS_FEED_BUFFER", 64),
		PageCacheTTL:   mustDuration("MARKS_PAGE_CACHE_TTL", 10*time.Minute),
		LiveCheck:      mustDuration("MARKS_LIVE_SESSION_CHECK", 30*time.Second),

		// Google sign-in
		GoogleClientID:     getenv("MARKS_GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("MARKS_GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getenv("MARKS_GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		// Import
		ImportFiles:    splitAndTrim(getenv("MARKS_IMPORT_FILE", "")), // Optional, comma-separated, empty = import disabled
		ImportOwner:    getenv("MARKS_IMPORT_OWNER", ""),
		ImportInterval: mustDuration("MARKS_IMPORT_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("MARKS_REDIS_ADDR"),
		RedisUser:             getenv("MARKS_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MARKS_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("MARKS_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKS_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:  splitAndTrim(getenv("MARKS_ALLOWED_HOSTS", "")),
		AllowedCIDRS:  parseAllowedIPs(getenv("MARKS_ALLOWED_CIDRS", "")),
		TrustProxy:    mustBool("MARKS_TRUST_PROXY", true),
		AuthRateBurst: getenvInt("MARKS_AUTH_RATE_BURST", 10),
		AuthRatePerMn: getenvInt("MARKS_AUTH_RATE_PER_MIN", 10),
		APIRateBurst:  getenvInt("MARKS_API_RATE_BURST", 60),
		APIRatePerMn:  getenvInt("MARKS_API_RATE_PER_MIN", 120),
	}

	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) validate() error {
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("MARKS_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("MARKS_REDIS_PASSWORD is required when MARKS_REDIS_PASSWORD_REQUIRED=true")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("MARKS_JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	switch c.FeedBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("MARKS_FEED_BACKEND must be redis or memory, got %q", c.FeedBackend)
	}
	if len(c.ImportFiles) > 0 && c.ImportOwner == "" {
		return fmt.Errorf("MARKS_IMPORT_OWNER is required when MARKS_IMPORT_FILE is set")
	}
	return nil
}

// ImportEnabled reports whether the Homepage import runs.
func (c *Config) ImportEnabled() bool {
	return len(c.ImportFiles) > 0
}

// GoogleEnabled reports whether OAuth sign-in is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	cp.RedisPassword = "***REDACTED***"
	cp.JWTSecret = "***REDACTED***"
	cp.GoogleClientSecret = "***REDACTED***"
	cp.DatabaseURL = utils.RedactDSN(c.DatabaseURL)
	if c.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
