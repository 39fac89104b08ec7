// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken  = "TELEGRAM_TOKEN"
	KeyTelegramAPIURL = "TELEGRAM_API_URL"
	KeyWebhookURL     = "WEBHOOK_URL"
	KeyWebhookCert    = "WEBHOOK_CERT"
	KeyMongoURI       = "MONGO_URI"
	KeyMongoDB        = "MONGO_DB"
	KeyAppEnv         = "APP_ENV"
	KeyLogLevel       = "LOG_LEVEL"
	KeyHTTPPort       = "HTTP_PORT"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv   = EnvProduction
	DefaultLogLevel = "info"
	DefaultHTTPPort = 8080
	DefaultAPIURL   = "https://api.telegram.org"
)

// defaultToken is a build-time fallback for TELEGRAM_TOKEN, settable via
// -ldflags "-X tg_relay_bot/internal/config.defaultToken=123:ABC".
var defaultToken string

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the relay must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
}

// Contract enumerates the authoritative configuration keys for the relay.
// .env loading is only permitted when APP_ENV=development; production must
// rely on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather; falls back to the build-time default when unset.",
	},
	{
		Key:         KeyTelegramAPIURL,
		Example:     DefaultAPIURL,
		Default:     DefaultAPIURL,
		Description: "Telegram Bot API base URL; override for local API servers or tests.",
	},
	{
		Key:         KeyWebhookURL,
		Example:     "https://bot.example.org",
		Required:    true,
		Description: "Public HTTPS base URL Telegram delivers webhook updates to.",
	},
	{
		Key:         KeyWebhookCert,
		Example:     "/etc/bot/cert.pem",
		Description: "Optional self-signed certificate uploaded during webhook registration.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string for the audit log and article store.",
	},
	{
		Key:         KeyMongoDB,
		Example:     "tg_relay",
		Required:    true,
		Description: "MongoDB database name.",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "Webhook/health/metrics HTTP port.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken  string
	TelegramAPIURL string
	WebhookURL     string
	WebhookCert    string
	MongoURI       string
	MongoDB        string
	AppEnv         string
	LogLevel       string
	HTTPPort       int
}

// Load resolves configuration from the environment (with optional dotenv in
// development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken:  firstNonEmpty(os.Getenv(KeyTelegramToken), defaultToken),
		TelegramAPIURL: firstNonEmpty(os.Getenv(KeyTelegramAPIURL), DefaultAPIURL),
		WebhookURL:     strings.TrimSpace(os.Getenv(KeyWebhookURL)),
		WebhookCert:    strings.TrimSpace(os.Getenv(KeyWebhookCert)),
		MongoURI:       strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:        strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:       firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:       DefaultHTTPPort,
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}
	if cfg.WebhookURL == "" {
		missing = append(missing, KeyWebhookURL)
	}
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return Config{}, fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
	}

	cfg.TelegramAPIURL = strings.TrimRight(cfg.TelegramAPIURL, "/")
	cfg.WebhookURL = strings.TrimRight(cfg.WebhookURL, "/")

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// FormatRedacted renders the configuration for diagnostics with secrets
// masked.
func FormatRedacted(cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "app_env: %s\n", cfg.AppEnv)
	fmt.Fprintf(&b, "telegram_token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Fprintf(&b, "telegram_api_url: %s\n", cfg.TelegramAPIURL)
	fmt.Fprintf(&b, "webhook_url: %s\n", cfg.WebhookURL)
	fmt.Fprintf(&b, "webhook_cert: %s\n", cfg.WebhookCert)
	fmt.Fprintf(&b, "mongo_uri: %s\n", redactMongoURI(cfg.MongoURI))
	fmt.Fprintf(&b, "mongo_db: %s\n", cfg.MongoDB)
	fmt.Fprintf(&b, "log_level: %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "http_port: %d", cfg.HTTPPort)

	return b.String()
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "redacted"
	}
	return token[:4] + "...redacted"
}

func redactMongoURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}

	rest := uri[schemeEnd+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}

	return uri[:schemeEnd+3] + rest[at+1:]
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
