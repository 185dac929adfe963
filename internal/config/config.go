package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverScylla = "scylla"
)

// Config is read from the process environment, optionally seeded from a .env file.
type Config struct {
	Port        string `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	BaseURL     string `mapstructure:"base_url"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleCallbackURL  string `mapstructure:"google_callback_url"`

	StoreDriver    string   `mapstructure:"store_driver"`
	ScyllaHosts    []string `mapstructure:"scylla_hosts"`
	ScyllaKeyspace string   `mapstructure:"scylla_keyspace"`
	ScyllaUsername string   `mapstructure:"scylla_username"`
	ScyllaPassword string   `mapstructure:"scylla_password"`

	RedisHost       string        `mapstructure:"redis_host"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	ProductCacheTTL time.Duration `mapstructure:"product_cache_ttl"`

	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	MinioPublicURL string `mapstructure:"minio_public_url"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`

	StoreName        string `mapstructure:"store_name"`
	BusinessEmail    string `mapstructure:"business_email"`
	BusinessPhone    string `mapstructure:"business_phone"`
	BusinessWhatsApp string `mapstructure:"business_whatsapp"`

	KafkaBrokers    []string `mapstructure:"kafka_brokers"`
	KafkaOrderTopic string   `mapstructure:"kafka_order_topic"`

	OrdersStrictTransitions bool `mapstructure:"orders_strict_transitions"`

	CORSOrigins    []string `mapstructure:"cors_origins"`
	APIRateLimit   int      `mapstructure:"api_rate_limit"`
	JaegerEndpoint string   `mapstructure:"jaeger_endpoint"`

	// EnvFile is the .env file that was loaded, empty when none was found.
	EnvFile string `mapstructure:"-"`
}

var defaults = map[string]any{
	"port":                      "8080",
	"environment":               "production",
	"base_url":                  "http://localhost:8080",
	"jwt_secret":                "",
	"jwt_ttl":                   7 * 24 * time.Hour,
	"google_client_id":          "",
	"google_client_secret":      "",
	"google_callback_url":       "http://localhost:8080/api/auth/google/callback",
	"store_driver":              DriverScylla,
	"scylla_hosts":              []string{"127.0.0.1:9042"},
	"scylla_keyspace":           "crown",
	"scylla_username":           "",
	"scylla_password":           "",
	"redis_host":                "",
	"redis_password":            "",
	"redis_db":                  0,
	"product_cache_ttl":         10 * time.Minute,
	"minio_endpoint":            "",
	"minio_access_key":          "",
	"minio_secret_key":          "",
	"minio_bucket":              "crown-images",
	"minio_use_ssl":             false,
	"minio_public_url":          "",
	"smtp_host":                 "",
	"smtp_port":                 587,
	"smtp_username":             "",
	"smtp_password":             "",
	"smtp_from":                 "",
	"store_name":                "Crown Mega Store",
	"business_email":            "",
	"business_phone":            "",
	"business_whatsapp":         "",
	"kafka_brokers":             []string{},
	"kafka_order_topic":         "order-events",
	"orders_strict_transitions": false,
	"cors_origins":              []string{"http://localhost:3000"},
	"api_rate_limit":            100,
	"jaeger_endpoint":           "",
}

// Load reads envFile (if it exists) into the environment, then decodes the
// environment into a Config. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	loaded := ""
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			loaded = envFile
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.EnvFile = loaded
	cfg.ScyllaHosts = splitList(cfg.ScyllaHosts)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// splitList trims entries and drops empty ones left by trailing commas.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverScylla:
		if len(c.ScyllaHosts) == 0 {
			errs = append(errs, errors.New("SCYLLA_HOSTS is required for the scylla driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.APIRateLimit < 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
