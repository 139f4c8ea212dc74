package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.False(t, cfg.Mongo.Transactions)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront.orders", cfg.Kafka.Topic)
	assert.Equal(t, 8, cfg.DispatchWorkers)
	assert.Equal(t, 20, cfg.RateLimit.OrdersPerMinute)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.False(t, cfg.Otel.Enabled)
	assert.Equal(t, 0.1, cfg.Otel.SampleRate)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":               "9090",
		"MONGO_TRANSACTIONS": "true",
		"KAFKA_BROKERS":      "k1:9092,k2:9092",
		"DISPATCH_WORKERS":   "3",
		"OTEL_ENABLED":       "true",
		"OTEL_ENDPOINT":      "collector:4317",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.DispatchWorkers)
	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, "collector:4317", cfg.Otel.Endpoint)
}

func TestValidateAPI_RequiresSecretInEveryEnvironment(t *testing.T) {
	for _, env := range []string{"development", "staging", "production"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
				"ENV": env,
			}))
			require.NoError(t, err)
			err = cfg.ValidateAPI()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "JWT_SECRET")

			cfg, err = LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
				"ENV":        env,
				"JWT_SECRET": "s3cret",
			}))
			require.NoError(t, err)
			assert.NoError(t, cfg.ValidateAPI())
			assert.Equal(t, env == "production", cfg.IsProduction())
		})
	}
}

func TestLoadWith_RejectsNonPositiveRateLimit(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"RATE_LIMIT_ORDERS_PER_MINUTE": "0",
	}))
	require.Error(t, err)
}
