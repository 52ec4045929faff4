// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Transaction log backends.
const (
	TxLogRedis  = "redis"
	TxLogMySQL  = "mysql"
	TxLogMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	UpstreamBaseURL string        // REST backend the portal fronts
	UpstreamTimeout time.Duration // bound on every upstream call

	SessionSecret string        // HMAC key for the portal session cookie
	SessionTTL    time.Duration // lifetime of the portal session cookie
	SessionCookie string        // name of the portal session cookie

	DraftTTL       time.Duration // idle lifetime of a booking draft
	PaymentTimeout time.Duration // how long a payment waits for the widget
	ConfirmTimeout time.Duration // bound on the backend confirmation call
	SuccessPath    string        // page the browser is sent to after payment

	TxLogDriver string // redis, mysql or memory

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	RabbitMQURL string // empty disables event publishing
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set are left alone.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("config: could not load %s: %v", p, err)
		}
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "8080"),
		UpstreamBaseURL: strings.TrimRight(must("UPSTREAM_BASE_URL"), "/"),
		UpstreamTimeout: envDur("UPSTREAM_TIMEOUT", 10*time.Second),
		SessionSecret:   must("SESSION_SECRET"),
		SessionTTL:      envDur("SESSION_TTL", 30*time.Minute),
		SessionCookie:   envStr("SESSION_COOKIE", "portal_session"),
		DraftTTL:        envDur("DRAFT_TTL", 30*time.Minute),
		PaymentTimeout:  envDur("PAYMENT_TIMEOUT", 15*time.Minute),
		ConfirmTimeout:  envDur("CONFIRM_TIMEOUT", 10*time.Second),
		SuccessPath:     envStr("PAYMENT_SUCCESS_PATH", "/booking/success"),
		TxLogDriver:     strings.ToLower(envStr("TXLOG_DRIVER", TxLogRedis)),
		DBUser:          os.Getenv("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          envStr("DB_HOST", "127.0.0.1"),
		DBPort:          envStr("DB_PORT", "3306"),
		DBName:          os.Getenv("DB_NAME"),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
	}
	switch cfg.TxLogDriver {
	case TxLogRedis, TxLogMemory:
	case TxLogMySQL:
		if cfg.DBUser == "" || cfg.DBName == "" {
			log.Fatalf("TXLOG_DRIVER=mysql requires DB_USER and DB_NAME")
		}
	default:
		log.Fatalf("invalid TXLOG_DRIVER: %q", cfg.TxLogDriver)
	}
	return cfg
}

// IsProd reports whether the portal runs in production.  Cookies are
// marked Secure there.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
