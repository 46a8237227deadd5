package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// MustInit loads .env and config.yaml for the named binary and configures the default logger.
// Missing files are tolerated, every key has a default.
func MustInit(name string) {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/" + name)
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}

	// Prices travel as JSON numbers, the way the storefront UI sends them.
	decimal.MarshalJSONWithoutQuotes = true

	SetupLogger(name)
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-Id"})
	viper.SetDefault("server.http.cors.exposed_headers", []string{"X-Request-Id"})
	viper.SetDefault("server.http.cors.allow_credentials", false)
	viper.SetDefault("server.http.cors.max_age", 300)

	viper.SetDefault("storage.driver", "postgres")
	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "rabbitmq")
	viper.SetDefault("rabbitmq.queue", "storefront.order.created")
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.max_retries", 5)
	viper.SetDefault("rabbitmq.outbox.retry_interval_seconds", 30)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.jaeger_endpoint", "http://jaeger:14268/api/traces")

	viper.SetDefault("checkout.delivery_fee", "35")
	viper.SetDefault("checkout.country_code", "20")
	viper.SetDefault("checkout.refine_wait_ms", 1500)

	viper.SetDefault("geocoding.base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocoding.language", "ar,en")
	viper.SetDefault("geocoding.timeout_seconds", 10)
	viper.SetDefault("geocoding.user_agent", "storefront-checkout/1.0")

	viper.SetDefault("geolocation.min_improvement_meters", 0.0)
	viper.SetDefault("geolocation.refinement_delay_ms", 1000)

	viper.SetDefault("history.backend", "file")
	viper.SetDefault("history.path", "./.storefront/history.json")
	viper.SetDefault("history.redis_addr", "localhost:6379")
	viper.SetDefault("history.key", "previousOrders")

	viper.SetDefault("api.base_url", "http://localhost:8080/api")
	viper.SetDefault("api.timeout_seconds", 15)
}

// SetupLogger installs the JSON slog handler as the default logger.
func SetupLogger(service string) {
	handler := logger.NewHandler(&logger.Options{
		Level: viper.GetString("log.level"),
	})
	log := slog.New(handler).With("service", service)
	slog.SetDefault(log)
}

// DeliveryFee returns the flat delivery surcharge added to every order.
func DeliveryFee() decimal.Decimal {
	fee, err := decimal.NewFromString(viper.GetString("checkout.delivery_fee"))
	if err != nil {
		panic("invalid checkout.delivery_fee: " + err.Error())
	}

	return fee
}
