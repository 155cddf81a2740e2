package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml (plus an optional config.<env>.yaml overlay) and
// lets environment variables override any key.
func Load() (*Config, error) {
	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // overlay is optional

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "candidate-onboarding"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Storage.Records == "" {
		cfg.Storage.Records = "memory"
	}
	if cfg.Storage.Claims == "" {
		cfg.Storage.Claims = "memory"
	}
	if cfg.Postgres.MaxConnections == 0 {
		cfg.Postgres.MaxConnections = 10
	}
	if cfg.Postgres.MaxIdle == 0 {
		cfg.Postgres.MaxIdle = 5
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Notify.Transport == "" {
		cfg.Notify.Transport = "log"
	}
	if cfg.Notify.TimeoutMillis == 0 {
		cfg.Notify.TimeoutMillis = 5000
	}
	if cfg.Notify.PendingTTLMillis == 0 {
		cfg.Notify.PendingTTLMillis = 30000
	}
	if cfg.Events.Sink == "" {
		cfg.Events.Sink = "none"
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "candidate-workflow-events"
	}
	if cfg.Events.Buffer == 0 {
		cfg.Events.Buffer = 256
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Records {
	case "memory", "postgres":
	default:
		return fmt.Errorf("storage.records must be memory or postgres, got %q", cfg.Storage.Records)
	}
	switch cfg.Storage.Claims {
	case "memory", "redis":
	default:
		return fmt.Errorf("storage.claims must be memory or redis, got %q", cfg.Storage.Claims)
	}
	switch cfg.Notify.Transport {
	case "log", "ses":
	default:
		return fmt.Errorf("notify.transport must be log or ses, got %q", cfg.Notify.Transport)
	}
	if cfg.Notify.Transport == "ses" && cfg.Notify.FromEmail == "" {
		return fmt.Errorf("notify.from_email is required for the ses transport")
	}
	switch cfg.Events.Sink {
	case "none", "kafka":
	default:
		return fmt.Errorf("events.sink must be none or kafka, got %q", cfg.Events.Sink)
	}
	if cfg.Events.Sink == "kafka" && len(cfg.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required for the kafka sink")
	}
	if cfg.Storage.Records == "postgres" && cfg.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required for the postgres record store")
	}
	if cfg.Storage.Claims == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required for the redis claim store")
	}
	return nil
}
