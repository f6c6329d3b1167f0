package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"trellouser"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"trellopassword"`
	DBName     string `env:"DB_NAME" envDefault:"mini_trello"`
	DBPath     string `env:"DB_PATH" envDefault:"mini_trello.db"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	SessionStore  string        `env:"SESSION_STORE" envDefault:"redis"`
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"default-jwt-secret-change-me"`
	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"168h"`

	GinMode     string `env:"GIN_MODE" envDefault:"debug"`
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"Mini Trello App <no-reply@localhost>"`

	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	InvitationTTL       time.Duration `env:"INVITATION_TTL" envDefault:"168h"`
	BcryptCost          int           `env:"BCRYPT_COST" envDefault:"10"`

	RealtimeBackend           string `env:"REALTIME_BACKEND" envDefault:"redis"`
	RealtimeChannel           string `env:"REALTIME_CHANNEL" envDefault:"board-events"`
	RealtimeRequireMembership bool   `env:"REALTIME_REQUIRE_MEMBERSHIP" envDefault:"true"`

	RateLimitEnabled   bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerWindow int           `env:"RATE_LIMIT_PER_WINDOW" envDefault:"100"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionStore {
	case "redis", "cookie":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	switch c.RealtimeBackend {
	case "redis", "local":
	default:
		return fmt.Errorf("unsupported REALTIME_BACKEND %q", c.RealtimeBackend)
	}
	if c.RateLimitEnabled {
		if c.RateLimitPerWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_PER_WINDOW must be positive, got %d", c.RateLimitPerWindow)
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
		}
	}
	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// RedisAddr returns host:port for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.SessionStore == "redis" || c.RealtimeBackend == "redis" || c.RateLimitEnabled
}

// AllowedOrigins splits FRONTEND_URL on commas.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return nil
	}
	parts := strings.Split(c.FrontendURL, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
