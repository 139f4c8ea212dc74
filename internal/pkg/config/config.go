package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	Otel      OtelConfig

	DispatchWorkers int `env:"DISPATCH_WORKERS, default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,          default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,           default=storefront"`
	// Transactions requires a replica set deployment.
	Transactions bool `env:"MONGO_TRANSACTIONS, default=false"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type KafkaConfig struct {
	// An empty broker list disables event publishing.
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_TOPIC, default=storefront.orders"`
}

type RateLimitConfig struct {
	OrdersPerMinute int `env:"RATE_LIMIT_ORDERS_PER_MINUTE, default=20"`
	Burst           int `env:"RATE_LIMIT_BURST,             default=5"`
}

type OtelConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED,      default=false"`
	Endpoint    string  `env:"OTEL_ENDPOINT"`
	ServiceName string  `env:"OTEL_SERVICE_NAME, default=storefront-api"`
	SampleRate  float64 `env:"OTEL_SAMPLE_RATE,  default=0.1"`
	Insecure    bool    `env:"OTEL_INSECURE,     default=true"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations no binary can start with.
func (c *Config) Validate() error {
	if c.RateLimit.OrdersPerMinute <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_ORDERS_PER_MINUTE must be positive")
	}
	return nil
}

// ValidateAPI adds the checks only the HTTP API needs. An empty JWT_SECRET
// would verify tokens signed with an empty key, so it is refused in every
// environment.
func (c *Config) ValidateAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
