package auth

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the auth endpoint's behavior.
type Config struct {
	// SessionTTL is fixed at one hour unless overridden; it is returned to
	// the client at login as expires_in (seconds).
	SessionTTL time.Duration

	TrustProxy   bool
	MaxBodyBytes int64

	// Bootstrap credential for a fresh deployment.
	DefaultUsername string
	DefaultPassword string
}

// LoadConfigFromEnv loads auth config from environment variables with safe
// defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		SessionTTL:      envDuration("FOLIO_SESSION_TTL", DefaultSessionTTL),
		TrustProxy:      envBool("FOLIO_TRUST_PROXY", false),
		MaxBodyBytes:    envInt64("FOLIO_AUTH_MAX_BODY_BYTES", 64<<10), // 64 KiB
		DefaultUsername: envString("FOLIO_ADMIN_USERNAME", "admin"),
		DefaultPassword: envString("FOLIO_ADMIN_PASSWORD", "123456"),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return cfg
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
