package config // package config loads application configuration from environment variables

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Every field maps to one
// environment variable; optional integrations are switched off by leaving
// their variables empty rather than by failing at startup.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DB           DBConfig
	PayPal       PayPalConfig
	Notification NotificationConfig
	Catalog      CatalogConfig
	Auth         AuthConfig

	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`
	RabbitMQURL       string        `envconfig:"RABBITMQ_URL"`
	AMQPURL           string        `envconfig:"AMQP_URL"`
	OutboundTimeout   time.Duration `envconfig:"OUTBOUND_TIMEOUT" default:"10s"`
}

// DBConfig accepts either a connection URL or discrete settings.  The URL
// wins when both are present.
type DBConfig struct {
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	MySQLURL     string `envconfig:"MYSQL_URL"`
	Host         string `envconfig:"MYSQL_HOST"`
	User         string `envconfig:"MYSQL_USER"`
	Password     string `envconfig:"MYSQL_PASSWORD"`
	Name         string `envconfig:"MYSQL_DATABASE"`
	Port         int    `envconfig:"MYSQL_PORT" default:"3306"`
	MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
}

type PayPalConfig struct {
	ClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	WebhookID    string `envconfig:"PAYPAL_WEBHOOK_ID"`
	Env          string `envconfig:"PAYPAL_ENV" default:"sandbox"`
	SkipVerify   bool   `envconfig:"PAYPAL_SKIP_VERIFY" default:"false"`
	// WebhookAck is "sync" (verify, then respond) or "async" (respond, then verify).
	WebhookAck string `envconfig:"PAYPAL_WEBHOOK_ACK" default:"sync"`
}

type NotificationConfig struct {
	ClientID     string `envconfig:"NOTIFICATIONAPI_CLIENT_ID"`
	ClientSecret string `envconfig:"NOTIFICATIONAPI_CLIENT_SECRET"`
	BaseURL      string `envconfig:"NOTIFICATIONAPI_BASE_URL" default:"https://api.notificationapi.com"`
	Type         string `envconfig:"NOTIFICATIONAPI_TYPE" default:"concertify"`
}

type CatalogConfig struct {
	APIKey  string `envconfig:"TICKETMASTER_API_KEY"`
	BaseURL string `envconfig:"TICKETMASTER_BASE_URL" default:"https://app.ticketmaster.com/discovery/v2"`
}

type AuthConfig struct {
	JWTSecret             string        `envconfig:"JWT_SECRET"`
	AccessTTL             time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTTL            time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`
	BcryptCost            int           `envconfig:"BCRYPT_COST" default:"12"`
	AdminEmails           []string      `envconfig:"ADMIN_EMAILS"`
	RequireAdminForStatus bool          `envconfig:"REQUIRE_ADMIN_FOR_STATUS" default:"false"`
}

// Load reads an optional .env file and then processes the environment into
// a Config.  A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	cfg.PayPal.WebhookAck = strings.ToLower(strings.TrimSpace(cfg.PayPal.WebhookAck))
	if cfg.PayPal.WebhookAck != "async" {
		cfg.PayPal.WebhookAck = "sync"
	}
	return cfg, nil
}

// URL returns the configured connection URL, preferring DATABASE_URL.
func (c DBConfig) URL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.MySQLURL
}

// Configured reports whether enough settings exist to open a pool.
func (c DBConfig) Configured() bool {
	return c.URL() != "" || (c.Host != "" && c.User != "" && c.Name != "")
}

// BrokerURL returns the RabbitMQ URL or "" when no broker is configured.
func (c Config) BrokerURL() string {
	if c.RabbitMQURL != "" {
		return c.RabbitMQURL
	}
	return c.AMQPURL
}

// AuthEnabled reports whether the auth endpoints should be mounted.
func (c Config) AuthEnabled() bool { return c.Auth.JWTSecret != "" }

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(a)) == email && email != "" {
			return true
		}
	}
	return false
}

// BaseURL returns the REST host for the configured PayPal environment.
func (c PayPalConfig) BaseURL() string {
	if strings.EqualFold(c.Env, "live") {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}
