package models

import "time"

// Config holds all configuration for the application
type Config struct {
	// Application
	AppName    string `mapstructure:"app_name"`
	AppVersion string `mapstructure:"app_version"`
	AppEnv     string `mapstructure:"app_env"`
	AppHost    string `mapstructure:"app_host"`
	AppPort    string `mapstructure:"app_port"`

	// AWS
	AWSRegion           string `mapstructure:"aws_region"`
	AWSAccessKeyID      string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey  string `mapstructure:"aws_secret_access_key"`
	DynamoDBEndpoint    string `mapstructure:"dynamodb_endpoint"`
	DynamoDBTablePrefix string `mapstructure:"dynamodb_table_prefix"`

	// Redis, used for generation leases. Empty disables leasing.
	RedisURL string `mapstructure:"redis_url"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Scheduler
	SchedulerCron            string        `mapstructure:"scheduler_cron"`
	SchedulerParallelism     int           `mapstructure:"scheduler_parallelism"`
	SchedulerLeaseTTL        time.Duration `mapstructure:"scheduler_lease_ttl"`
	SchedulerRunTimeout      time.Duration `mapstructure:"scheduler_run_timeout"`
	SchedulerStatusPath      string        `mapstructure:"scheduler_status_path"`
	SchedulerRunOnStart      bool          `mapstructure:"scheduler_run_on_start"`
	SchedulerBootstrapTables bool          `mapstructure:"scheduler_bootstrap_tables"`

	// Base Path
	BasePath string `mapstructure:"basePath"`
}

// TableName returns the prefixed name of a logical table.
func (c *Config) TableName(name string) string {
	return c.DynamoDBTablePrefix + "_" + name
}

const (
	TableSchedulePlans = "plans"
	TableOperationJobs = "jobs"
	TableCrews         = "crews"
)
