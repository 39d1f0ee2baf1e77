package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldops-scheduler/models"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	"github.com/spf13/viper"
)

// GetConfig read the configuration from environment variables or config files
func GetConfig() (*models.Config, error) {
	config, err := Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return config, nil
}

// Load initializes and returns the application configuration using Viper
func Load() (*models.Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	flattenNestedConfig(v)

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app_name", "FieldOps Scheduler")
	v.SetDefault("app_version", "1.0.0")
	v.SetDefault("app_env", "development")
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8081")

	// AWS defaults
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")
	v.SetDefault("dynamodb_endpoint", "")
	v.SetDefault("dynamodb_table_prefix", "dev")

	v.SetDefault("redis_url", "")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Scheduler defaults
	v.SetDefault("scheduler_cron", "0 */5 * * * *")
	v.SetDefault("scheduler_parallelism", 4)
	v.SetDefault("scheduler_lease_ttl", 2*time.Minute)
	v.SetDefault("scheduler_run_timeout", 10*time.Minute)
	v.SetDefault("scheduler_status_path", "/tmp/fieldops-scheduler-status.json")
	v.SetDefault("scheduler_run_on_start", true)
	v.SetDefault("scheduler_bootstrap_tables", false)

	v.SetDefault("basePath", "/api/v1")
}

// validate checks if all required configuration is provided
func validate(c *models.Config) error {
	if c.DynamoDBTablePrefix == "" {
		return errors.New("dynamodb_table_prefix must not be empty")
	}
	if c.SchedulerParallelism < 1 {
		return fmt.Errorf("scheduler_parallelism must be at least 1, got %d", c.SchedulerParallelism)
	}
	if c.SchedulerLeaseTTL <= 0 {
		return errors.New("scheduler_lease_ttl must be positive")
	}
	if c.SchedulerRunTimeout <= 0 {
		return errors.New("scheduler_run_timeout must be positive")
	}
	if _, err := cron.Parse(c.SchedulerCron); err != nil {
		return fmt.Errorf("invalid scheduler_cron %q: %w", c.SchedulerCron, err)
	}
	if c.AppEnv == "production" && c.RedisURL == "" {
		return errors.New("redis_url must be set in production environment")
	}
	return nil
}

// flattenNestedConfig maps the nested config.json sections onto flat keys
func flattenNestedConfig(v *viper.Viper) {
	nested := map[string]string{
		"app.name":                   "app_name",
		"app.version":                "app_version",
		"app.env":                    "app_env",
		"app.host":                   "app_host",
		"app.port":                   "app_port",
		"aws.region":                 "aws_region",
		"aws.access_key_id":          "aws_access_key_id",
		"aws.secret_access_key":      "aws_secret_access_key",
		"aws.dynamodb_endpoint":      "dynamodb_endpoint",
		"aws.dynamodb_table_prefix":  "dynamodb_table_prefix",
		"redis.url":                  "redis_url",
		"logging.level":              "log_level",
		"logging.format":             "log_format",
		"scheduler.cron":             "scheduler_cron",
		"scheduler.parallelism":      "scheduler_parallelism",
		"scheduler.lease_ttl":        "scheduler_lease_ttl",
		"scheduler.run_timeout":      "scheduler_run_timeout",
		"scheduler.status_path":      "scheduler_status_path",
		"scheduler.run_on_start":     "scheduler_run_on_start",
		"scheduler.bootstrap_tables": "scheduler_bootstrap_tables",
	}

	for from, to := range nested {
		if v.IsSet(from) {
			v.Set(to, v.Get(from))
		}
	}
}

// GenerateUUID returns a new UUID string
func GenerateUUID() string {
	return uuid.New().String()
}
