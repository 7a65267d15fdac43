package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// SessionBackend selects where conversation sessions live.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Mongo
	MongoURI string // connection string; TLS comes from the URI (mongodb+srv)
	MongoDB  string // database name

	// WhatsApp Cloud API
	WAPhoneID     string        // phone number id the bot sends from
	WAAccessToken string        // bearer token for the Graph API
	GraphBaseURL  string        // overridable for tests; empty = production endpoint
	SendTimeout   time.Duration // bound on each outbound send

	// Webhook
	VerifyToken string // hub.verify_token expected on GET /webhook
	AppSecret   string // pre-shared secret for signature verification

	// Notification dispatcher
	NotifyInterval time.Duration // baseline cycle period (ex: 60s)
	NotifyBackoff  time.Duration // cycle period after an error (ex: 5m)
	SendDelay      time.Duration // pause between per-subscriber sends

	// Catalog
	CatalogFile string // optional yaml override; empty = built-in catalog

	// Sessions
	SessionBackend string        // "memory" (default) or "redis"
	SessionTTL     time.Duration // redis backend only

	// Redis (only read when SessionBackend == "redis")
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("OFFREBOT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("OFFREBOT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("OFFREBOT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("OFFREBOT_PRETTY_LOG", false),

		// Mongo: required, no silent defaulting for the connection string
		MongoURI: requireEnv("OFFREBOT_MONGO_URI"),
		MongoDB:  getenv("OFFREBOT_MONGO_DB", "offrebot"),

		// WhatsApp credentials: required
		WAPhoneID:     requireEnv("OFFREBOT_WA_PHONE_ID"),
		WAAccessToken: requireEnv("OFFREBOT_WA_ACCESS_TOKEN"),
		GraphBaseURL:  getenv("OFFREBOT_GRAPH_BASE_URL", ""),
		SendTimeout:   mustDuration("OFFREBOT_SEND_TIMEOUT", 10*time.Second),

		// Webhook secrets: required
		VerifyToken: requireEnv("OFFREBOT_VERIFY_TOKEN"),
		AppSecret:   requireEnv("OFFREBOT_APP_SECRET"),

		// Dispatcher
		NotifyInterval: mustDuration("OFFREBOT_NOTIFY_INTERVAL", 60*time.Second),
		NotifyBackoff:  mustDuration("OFFREBOT_NOTIFY_BACKOFF", 5*time.Minute),
		SendDelay:      mustDuration("OFFREBOT_SEND_DELAY", 750*time.Millisecond),

		// Catalog
		CatalogFile: getenv("OFFREBOT_CATALOG_FILE", ""),

		// Sessions
		SessionBackend: getenv("OFFREBOT_SESSION_BACKEND", SessionBackendMemory),
		SessionTTL:     mustDuration("OFFREBOT_SESSION_TTL", 24*time.Hour),
	}

	switch cfg.SessionBackend {
	case SessionBackendMemory:
		// nothing more to read
	case SessionBackendRedis:
		cfg.RedisAddr = requireEnv("OFFREBOT_REDIS_ADDR")
		cfg.RedisPassword = getenv("OFFREBOT_REDIS_PASSWORD", "")
		cfg.RedisDB = getenvInt("OFFREBOT_REDIS_DB", 0)
		cfg.RedisDialTimeout = mustDuration("OFFREBOT_REDIS_DIAL_TIMEOUT", 5*time.Second)
		cfg.RedisConnectTimeout = mustDuration("OFFREBOT_REDIS_CONNECT_TIMEOUT", 30*time.Second)
		cfg.RedisRetryInterval = mustDuration("OFFREBOT_REDIS_RETRY_INTERVAL", 2*time.Second)
		cfg.RedisMaxWait = mustDuration("OFFREBOT_REDIS_MAX_WAIT", 10*time.Second)
		cfg.RedisPingTimeout = mustDuration("OFFREBOT_REDIS_PING_TIMEOUT", 5*time.Second)
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown OFFREBOT_SESSION_BACKEND %q (expected %q or %q)",
			cfg.SessionBackend, SessionBackendMemory, SessionBackendRedis))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.MongoURI = "***REDACTED***"
		cfgCopy.WAAccessToken = "***REDACTED***"
		cfgCopy.AppSecret = "***REDACTED***"
		cfgCopy.VerifyToken = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
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
