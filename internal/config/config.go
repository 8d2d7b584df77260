// Package config loads skript's runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the settings every skript component reads at startup.
type Config struct {
	Service ServiceConfig
	Redis   RedisConfig
	Runtime RuntimeConfig
	API     APIConfig
}

// ServiceConfig holds process-wide identity and logging settings.
type ServiceConfig struct {
	Name      string
	LogLevel  string
	LogFormat string
}

// RedisConfig holds the settings for the remote store/queue backend.
type RedisConfig struct {
	URL      string
	TasksKey string
}

// RuntimeConfig holds worker-pool and execution settings.
type RuntimeConfig struct {
	// Backend names "memory" or "redis"; Validate checks it. The cmd/skript
	// subcommands do not read it: run always uses the memory backends,
	// worker and submit always use Redis.
	Backend       string
	Workers       int
	NodeTimeout   time.Duration
	QueuePopWait  time.Duration
	EnableFusion  bool
}

// APIConfig holds the observability HTTP API settings.
type APIConfig struct {
	Enabled bool
	Addr    string
}

// Load reads Config from the environment, applying the same defaults the
// teacher service uses for anything not domain-specific.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:      serviceName,
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "text"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TasksKey: getEnv("SKRIPT_TASKS_KEY", "skript:distributed:tasks"),
		},
		Runtime: RuntimeConfig{
			Backend:      getEnv("SKRIPT_BACKEND", "memory"),
			Workers:      getEnvInt("SKRIPT_WORKERS", 4),
			NodeTimeout:  getEnvDuration("SKRIPT_NODE_TIMEOUT", 60*time.Second),
			QueuePopWait: getEnvDuration("SKRIPT_QUEUE_POP_WAIT", 1*time.Second),
			EnableFusion: getEnvBool("SKRIPT_ENABLE_FUSION", true),
		},
		API: APIConfig{
			Enabled: getEnvBool("SKRIPT_API_ENABLED", false),
			Addr:    getEnv("SKRIPT_API_ADDR", ":8080"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks invariants across fields that Load cannot enforce at the
// point of assignment.
func (c *Config) Validate() error {
	if c.Runtime.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Runtime.Workers)
	}
	if c.Runtime.Backend != "memory" && c.Runtime.Backend != "redis" {
		return fmt.Errorf("invalid backend %q: must be \"memory\" or \"redis\"", c.Runtime.Backend)
	}
	if c.Runtime.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("redis backend selected but REDIS_URL is empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
