package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	ServerPort      int           `json:"server_port"`
	LogLevel        string        `json:"log_level"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Version         string        `json:"version"`

	// Storage and queueing
	Backend         string        `json:"backend"`
	RedisURL        string        `json:"redis_url"`
	QueueName       string        `json:"queue_name"`
	WorkerCount     int           `json:"worker_count"`
	MaxInFlight     int           `json:"max_in_flight"`
	EmbeddedWorkers bool          `json:"embedded_workers"`
	CacheTTL        time.Duration `json:"cache_ttl"`

	// Job orchestration
	MaxWaitTime       time.Duration `json:"max_wait_time"`
	SleepTime         time.Duration `json:"sleep_time"`
	IdentityThreshold float64       `json:"identity_threshold"`
	MaxBatchSize      int           `json:"max_batch_size"`

	// Outbound HTTP
	RequestTimeout      time.Duration `json:"request_timeout"`
	FanoutConcurrency   int           `json:"fanout_concurrency"`
	DispatcherURL       string        `json:"dispatcher_url"`
	DispatcherEmail     string        `json:"dispatcher_email"`
	DispatcherRateLimit int           `json:"dispatcher_rate_limit"`
	UniProtAPIURL       string        `json:"uniprot_api_url"`
	RegistryFile        string        `json:"registry_file"`
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnvInt("PORT", 8080),
		LogLevel:        getEnvString("LOG_LEVEL", "INFO"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Version:         getEnvString("VERSION", "1.0.0"),

		Backend:         getEnvString("BACKEND", BackendMemory),
		RedisURL:        getEnvString("REDIS_URL", "redis://localhost:6379/1"),
		QueueName:       getEnvString("QUEUE_NAME", "sequence-search"),
		WorkerCount:     getEnvInt("WORKER_COUNT", 3),
		MaxInFlight:     getEnvInt("MAX_IN_FLIGHT_TASKS", 256),
		EmbeddedWorkers: getEnvBool("EMBEDDED_WORKERS", true),
		CacheTTL:        getEnvDuration("CACHE_TTL", 24*time.Hour),

		MaxWaitTime:       getEnvDuration("MAX_WAIT_TIME", 600*time.Second),
		SleepTime:         getEnvDuration("SLEEP_TIME", 20*time.Second),
		IdentityThreshold: getEnvFloat("HIT_IDENTITY_THRESHOLD", 90),
		MaxBatchSize:      getEnvInt("MAX_POST_LIMIT", 10),

		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		FanoutConcurrency:   getEnvInt("FANOUT_CONCURRENCY", 16),
		DispatcherURL:       getEnvString("DISPATCHER_URL", "https://www.ebi.ac.uk/Tools/services/rest/ncbiblast"),
		DispatcherEmail:     getEnvString("DISPATCHER_EMAIL", "pdbekb_help@ebi.ac.uk"),
		DispatcherRateLimit: getEnvInt("DISPATCHER_RATE_LIMIT", 5),
		UniProtAPIURL:       getEnvString("UNIPROT_API_URL", "https://www.ebi.ac.uk/proteins/api/proteins"),
		RegistryFile:        getEnvString("REGISTRY_FILE", "data/registry.json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Address returns the server address in host:port format
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (c *Config) validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.ServerPort)
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
	}
	upperLevel := strings.ToUpper(strings.TrimSpace(c.LogLevel))
	if !validLevels[upperLevel] {
		return fmt.Errorf("invalid log level '%s': must be DEBUG, INFO, WARN or ERROR", c.LogLevel)
	}
	c.LogLevel = upperLevel

	if c.ShutdownTimeout <= 0 || c.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("invalid shutdown timeout %v: must be positive and at most 5 minutes", c.ShutdownTimeout)
	}

	if strings.TrimSpace(c.Version) == "" {
		return fmt.Errorf("version cannot be empty")
	}
	c.Version = strings.TrimSpace(c.Version)

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendMemory:
		// the memory queue is private to this process
		if !c.EmbeddedWorkers {
			return fmt.Errorf("embedded workers are required when backend is memory")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("redis URL cannot be empty when backend is redis")
		}
		if strings.TrimSpace(c.QueueName) == "" {
			return fmt.Errorf("queue name cannot be empty when backend is redis")
		}
	default:
		return fmt.Errorf("invalid backend '%s': must be memory or redis", c.Backend)
	}

	if c.EmbeddedWorkers && c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1 when embedded workers are enabled")
	}
	// searches hold their slot while sleeping between polls, so this is the
	// number of searches followed at once, not a CPU bound
	if c.MaxInFlight < c.WorkerCount {
		return fmt.Errorf("invalid max in-flight tasks %d: must be at least the worker count %d", c.MaxInFlight, c.WorkerCount)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL %v: must not be negative", c.CacheTTL)
	}

	if c.MaxWaitTime <= 0 {
		return fmt.Errorf("invalid max wait time %v: must be positive", c.MaxWaitTime)
	}
	if c.SleepTime <= 0 || c.SleepTime > c.MaxWaitTime {
		return fmt.Errorf("invalid sleep time %v: must be positive and not exceed max wait time", c.SleepTime)
	}
	if c.IdentityThreshold < 0 || c.IdentityThreshold > 100 {
		return fmt.Errorf("invalid identity threshold %v: must be between 0 and 100", c.IdentityThreshold)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("invalid max batch size %d: must be at least 1", c.MaxBatchSize)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout %v: must be positive", c.RequestTimeout)
	}
	if c.FanoutConcurrency < 1 {
		return fmt.Errorf("invalid fan-out concurrency %d: must be at least 1", c.FanoutConcurrency)
	}
	if strings.TrimSpace(c.DispatcherURL) == "" {
		return fmt.Errorf("dispatcher URL cannot be empty")
	}
	if c.DispatcherRateLimit < 1 {
		return fmt.Errorf("invalid dispatcher rate limit %d: must be at least 1", c.DispatcherRateLimit)
	}
	if strings.TrimSpace(c.RegistryFile) == "" {
		return fmt.Errorf("registry file cannot be empty")
	}

	return nil
}
