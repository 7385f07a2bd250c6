package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the process reads from the environment. Secrets
// (admin key, gateway instance credentials, cédula API credentials) are
// deployment values and never appear as literals in code.
type Config struct {
	Addr string

	// AdminAPIKey guards /admin/register-user.
	AdminAPIKey string

	// Green API credentials for outbound WhatsApp delivery.
	GreenAPIBaseURL       string
	GreenAPIIDInstance    string
	GreenAPITokenInstance string

	// Cédula verification service.
	CedulaAPIBaseURL string
	CedulaAppID      string
	CedulaAPIToken   string

	// External call deadline for both the verifier and the dispatcher.
	ExternalTimeout time.Duration

	// DatabaseURL selects the postgres record stores; empty means in-memory.
	DatabaseURL string

	// RedisURL selects the redis conversation store; empty means in-memory.
	RedisURL string

	// KafkaBrokers enables the Kafka audit trail; empty means in-memory.
	KafkaBrokers []string
	AuditTopic   string

	// RequireStreamOwner controls whether a stream submission must reference a
	// registered cédula before it is accepted.
	RequireStreamOwner bool
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                  envOr("AQUITA_ADDR", ":8080"),
		AdminAPIKey:           os.Getenv("ADMIN_API_KEY"),
		GreenAPIBaseURL:       envOr("GREEN_API_BASE_URL", "https://api.green-api.com"),
		GreenAPIIDInstance:    os.Getenv("GREEN_API_ID_INSTANCE"),
		GreenAPITokenInstance: os.Getenv("GREEN_API_TOKEN_INSTANCE"),
		CedulaAPIBaseURL:      envOr("CEDULA_API_BASE_URL", "https://api.cedula.com.ve"),
		CedulaAppID:           os.Getenv("CEDULA_APP_ID"),
		CedulaAPIToken:        os.Getenv("CEDULA_API_TOKEN"),
		ExternalTimeout:       15 * time.Second,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		AuditTopic:            envOr("AUDIT_TOPIC", "aquita.audit"),
		RequireStreamOwner:    os.Getenv("STREAM_OWNER_OPTIONAL") != "true",
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if d, err := time.ParseDuration(os.Getenv("EXTERNAL_TIMEOUT")); err == nil && d > 0 {
		cfg.ExternalTimeout = d
	}

	return cfg
}

// MissingSecrets lists critical secrets that are unset, for startup warnings.
func (c Config) MissingSecrets() []string {
	var missing []string
	if c.AdminAPIKey == "" {
		missing = append(missing, "ADMIN_API_KEY")
	}
	if c.GreenAPIIDInstance == "" {
		missing = append(missing, "GREEN_API_ID_INSTANCE")
	}
	if c.GreenAPITokenInstance == "" {
		missing = append(missing, "GREEN_API_TOKEN_INSTANCE")
	}
	if c.CedulaAPIToken == "" {
		missing = append(missing, "CEDULA_API_TOKEN")
	}
	return missing
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
