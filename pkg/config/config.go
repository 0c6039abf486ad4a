package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Audit policies for consent submissions
const (
	AuditBestEffort = "best_effort"
	AuditRequired   = "required"
)

// Config holds runtime configuration for the API.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"3000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
	// ProxyHeader is honoured by c.IP() only for requests from TrustedProxies
	ProxyHeader    string   `envconfig:"PROXY_HEADER"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"mmeg"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBTimeZone  string `envconfig:"DB_TIMEZONE" default:"UTC"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	ConsentVersion      int    `envconfig:"CONSENT_VERSION" default:"1"`
	ConsentAuditPolicy  string `envconfig:"CONSENT_AUDIT_POLICY" default:"best_effort"`
	ConsentIPSalt       string `envconfig:"CONSENT_IP_SALT"`
	ConsentRegionHeader string `envconfig:"CONSENT_REGION_HEADER" default:"X-Vercel-IP-Country"`
	ConsentRateLimit    int    `envconfig:"CONSENT_RATE_LIMIT" default:"30"`

	SeedOwnerEmail    string `envconfig:"SEED_OWNER_EMAIL"`
	SeedOwnerPassword string `envconfig:"SEED_OWNER_PASSWORD"`
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv fills Config from the environment only
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.IsProduction() && c.ConsentIPSalt == "" {
		return errors.New("CONSENT_IP_SALT must be set in production")
	}
	if c.ConsentVersion < 1 {
		return fmt.Errorf("CONSENT_VERSION must be positive, got %d", c.ConsentVersion)
	}
	switch c.ConsentAuditPolicy {
	case AuditBestEffort, AuditRequired:
	default:
		return fmt.Errorf("CONSENT_AUDIT_POLICY must be %q or %q", AuditBestEffort, AuditRequired)
	}
	if c.ConsentRateLimit < 1 {
		return errors.New("CONSENT_RATE_LIMIT must be at least 1")
	}
	if c.ProxyHeader != "" && len(c.TrustedProxies) == 0 {
		return errors.New("TRUSTED_PROXIES must be set when PROXY_HEADER is")
	}
	if (c.SeedOwnerEmail == "") != (c.SeedOwnerPassword == "") {
		return errors.New("SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD must be set together")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(c.AppEnv, "production")
}

// DSN returns DATABASE_URL or one assembled from the DB_* parts
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

// Secret returns the JWT signing key, falling back to a development key
func (c *Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte("dev-only-secret-change-me")
	}
	return []byte(c.JWTSecret)
}
