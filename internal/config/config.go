package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Session  SessionConfig  `mapstructure:"session"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type SnapshotConfig struct {
	// Dedupe controls whether a snapshot request for an identical
	// (patient, food, category) key with the same resolved source reuses
	// the existing snapshot instead of freezing a new one.
	Dedupe         bool          `mapstructure:"dedupe"`
	PolicyCacheTTL time.Duration `mapstructure:"policy_cache_ttl"`
}

type AuditConfig struct {
	IPHashKey     string `mapstructure:"ip_hash_key"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

type SessionConfig struct {
	// TenantRole is the lower-privileged database role the transaction
	// scope attempts to assume. Empty skips the SET LOCAL ROLE step.
	TenantRole string `mapstructure:"tenant_role"`
}

type WorkerConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("database.sslmode", "require")
	viper.SetDefault("snapshot.policy_cache_ttl", 30*time.Second)
	viper.SetDefault("worker.batch_size", 100)
	viper.SetDefault("worker.poll_interval", 5*time.Second)
	viper.SetDefault("worker.retry_attempts", 3)
	viper.SetDefault("worker.retry_delay", time.Second)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
