package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FEASTLY_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FEASTLY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AMQP        AMQPConfig
	Orders      OrdersConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// AMQPConfig controls the notification broker connection. An empty URL
// disables the broker; notifications then go to the log.
type AMQPConfig struct {
	URL      string `usage:"AMQP broker URL for notifications (empty disables the broker)" flag:"amqp-url"`
	Exchange string `default:"notifications" usage:"AMQP exchange for notification routing"`
}

// OrdersConfig holds the order workflow knobs.
type OrdersConfig struct {
	NumberPrefix   string `default:"#" usage:"Display number prefix" flag:"number-prefix"`
	NumberLow      int    `default:"1000" usage:"Lowest display number" flag:"number-low"`
	NumberHigh     int    `default:"9999" usage:"Highest display number" flag:"number-high"`
	NumberAttempts int    `default:"5" usage:"Display number collision retries" flag:"number-attempts"`
	StrictStatus   bool   `default:"false" usage:"Restrict status changes to the forward flow" flag:"strict-status"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FEASTLY",
		Files:     []string{"config.yaml", "/etc/feastly/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set FEASTLY_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the FEASTLY_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.AMQP.URL == "" {
		if v := os.Getenv("AMQP_URL"); v != "" {
			c.AMQP.URL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
