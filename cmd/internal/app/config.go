package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// DataDir holds the JSON documents when no database is configured.
	DataDir string

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool

	AllowedOrigins []string
	TrustProxy     bool

	// Message submission rate limit.
	RateWindow time.Duration
	RateMax    int

	// Site gate knobs; an empty secret disables the disable endpoint.
	DisableSecret string
	CanonicalLink string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("FOLIO_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("FOLIO_LOG_LEVEL", "info"),
		LogPretty: EnvBool("FOLIO_LOG_PRETTY", false),

		ReadHeaderTimeout: EnvDuration("FOLIO_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("FOLIO_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("FOLIO_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("FOLIO_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("FOLIO_HTTP_MAX_HEADER_BYTES", 1<<20),

		DataDir: EnvString("FOLIO_DATA_DIR", "./data"),

		DatabaseURL: EnvString("FOLIO_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("FOLIO_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("FOLIO_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("FOLIO_READINESS_REQUIRE_DB", false),

		AllowedOrigins: EnvCSV("FOLIO_ALLOWED_ORIGINS", "http://localhost,http://127.0.0.1"),
		TrustProxy:     EnvBool("FOLIO_TRUST_PROXY", false),

		RateWindow: EnvDuration("FOLIO_RATE_WINDOW", 60*time.Second),
		RateMax:    EnvInt("FOLIO_RATE_MAX", 3),

		DisableSecret: EnvString("FOLIO_DISABLE_SECRET", ""),
		CanonicalLink: EnvString("FOLIO_CANONICAL_LINK", ""),
	}
}
