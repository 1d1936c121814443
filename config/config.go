package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Reminder store.
	StoreDriver  string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	DatabaseName string        `mapstructure:"DATABASE_NAME"`
	PostgresURL  string        `mapstructure:"POSTGRES_URL"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Slack.
	SlackMode          string        `mapstructure:"SLACK_MODE"`
	SlackBotToken      string        `mapstructure:"SLACK_BOT_TOKEN"`
	SlackAppToken      string        `mapstructure:"SLACK_APP_TOKEN"`
	SlackSigningSecret string        `mapstructure:"SLACK_SIGNING_SECRET"`
	SendTimeout        time.Duration `mapstructure:"SEND_TIMEOUT"`
	EventWorkers       int           `mapstructure:"EVENT_WORKERS"`
	MaxMessagesPerMin  int           `mapstructure:"MAX_MESSAGES_PER_MIN"`

	// Gemini.
	GeminiAPIKey      string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string        `mapstructure:"GEMINI_MODEL"`
	GenerationTimeout time.Duration `mapstructure:"GENERATION_TIMEOUT"`
	GenerationRPM     int           `mapstructure:"GENERATION_RPM"`
	ConversationTTL   time.Duration `mapstructure:"CONVERSATION_TTL"`

	// Reminder scheduling.
	ReminderTimezone string        `mapstructure:"REMINDER_TIMEZONE"`
	PollInterval     time.Duration `mapstructure:"POLL_INTERVAL"`
	FireTolerance    time.Duration `mapstructure:"FIRE_TOLERANCE"`
	PollDriver       string        `mapstructure:"POLL_DRIVER"`
	DeliveryGuard    string        `mapstructure:"DELIVERY_GUARD"`
	ClaimTTL         time.Duration `mapstructure:"CLAIM_TTL"`
}

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	SlackModeEvents = "events"
	SlackModeSocket = "socket"

	PollDriverTicker = "ticker"
	PollDriverAsynq  = "asynq"

	GuardNone  = "none"
	GuardClaim = "claim"
)

var keys = []string{
	"APP_PORT", "ENV", "LOG_LEVEL",
	"STORE_DRIVER", "DATABASE_URL", "DATABASE_NAME", "POSTGRES_URL", "STORE_TIMEOUT",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_CACHE_DB", "REDIS_QUEUE_DB",
	"SLACK_MODE", "SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "SLACK_SIGNING_SECRET",
	"SEND_TIMEOUT", "EVENT_WORKERS", "MAX_MESSAGES_PER_MIN",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GENERATION_TIMEOUT", "GENERATION_RPM", "CONVERSATION_TTL",
	"REMINDER_TIMEZONE", "POLL_INTERVAL", "FIRE_TOLERANCE", "POLL_DRIVER", "DELIVERY_GUARD", "CLAIM_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "rebeca")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("STORE_TIMEOUT", "10s")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("SLACK_MODE", SlackModeEvents)
	v.SetDefault("SLACK_BOT_TOKEN", "")
	v.SetDefault("SLACK_APP_TOKEN", "")
	v.SetDefault("SLACK_SIGNING_SECRET", "")
	v.SetDefault("SEND_TIMEOUT", "10s")
	v.SetDefault("EVENT_WORKERS", 8)
	v.SetDefault("MAX_MESSAGES_PER_MIN", 20)

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GENERATION_TIMEOUT", "20s")
	v.SetDefault("GENERATION_RPM", 60)
	v.SetDefault("CONVERSATION_TTL", "30m")

	v.SetDefault("REMINDER_TIMEZONE", "America/Mexico_City")
	v.SetDefault("POLL_INTERVAL", "60s")
	v.SetDefault("FIRE_TOLERANCE", "40s")
	v.SetDefault("POLL_DRIVER", PollDriverTicker)
	v.SetDefault("DELIVERY_GUARD", GuardClaim)
	v.SetDefault("CLAIM_TTL", "5m")
}

// LoadConfig reads config.yaml (if any) from path, "." and "./config", then
// overlays environment variables. The returned Config is validated.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	// Unmarshal only sees keys viper knows about; bind them so env-only values land.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required secrets for the selected modes and the
// relationship between the polling interval and the due window.
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreDriver {
	case StoreMongo:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the mongo store")
		}
	case StorePostgres:
		if c.PostgresURL == "" {
			problems = append(problems, "POSTGRES_URL is required for the postgres store")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.SlackBotToken == "" {
		problems = append(problems, "SLACK_BOT_TOKEN is required")
	}
	switch c.SlackMode {
	case SlackModeEvents:
		if c.SlackSigningSecret == "" {
			problems = append(problems, "SLACK_SIGNING_SECRET is required in events mode")
		}
	case SlackModeSocket:
		if c.SlackAppToken == "" {
			problems = append(problems, "SLACK_APP_TOKEN is required in socket mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown SLACK_MODE %q", c.SlackMode))
	}

	if c.GeminiAPIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is required")
	}

	if c.PollInterval <= 0 {
		problems = append(problems, "POLL_INTERVAL must be positive")
	}
	if c.FireTolerance <= 0 {
		problems = append(problems, "FIRE_TOLERANCE must be positive")
	}
	// The due window spans twice the tolerance and has to cover one polling period.
	if 2*c.FireTolerance <= c.PollInterval {
		problems = append(problems, fmt.Sprintf("FIRE_TOLERANCE %s leaves gaps with POLL_INTERVAL %s", c.FireTolerance, c.PollInterval))
	}

	if c.PollDriver != PollDriverTicker && c.PollDriver != PollDriverAsynq {
		problems = append(problems, fmt.Sprintf("unknown POLL_DRIVER %q", c.PollDriver))
	}
	if c.DeliveryGuard != GuardNone && c.DeliveryGuard != GuardClaim {
		problems = append(problems, fmt.Sprintf("unknown DELIVERY_GUARD %q", c.DeliveryGuard))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
