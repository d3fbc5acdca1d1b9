package config

import (
	"fmt"
	"strconv"
	"time"

	"planet-service/internal/shared/utils"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port              string
	URL               string
	Environment       string
	LinksUseServerURL bool
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL       string
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

type MetricsConfig struct {
	Enabled bool
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Storage:   loadStorageConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Frontend:  loadFrontendConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		Metrics:   loadMetricsConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout := utils.GetEnvInt("SERVER_READ_TIMEOUT_SECONDS", 15)
	writeTimeout := utils.GetEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 15)
	idleTimeout := utils.GetEnvInt("SERVER_IDLE_TIMEOUT_SECONDS", 60)

	return ServerConfig{
		Port:              utils.GetEnv("SERVER_PORT", "8080"),
		URL:               utils.GetEnv("SERVER_URL", "http://localhost:8080"),
		Environment:       utils.GetEnv("ENVIRONMENT", "development"),
		LinksUseServerURL: utils.GetEnvBool("LINKS_USE_SERVER_URL", false),
		ReadTimeout:       time.Duration(readTimeout) * time.Second,
		WriteTimeout:      time.Duration(writeTimeout) * time.Second,
		IdleTimeout:       time.Duration(idleTimeout) * time.Second,
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver: utils.GetEnv("STORAGE_DRIVER", StorageDriverPostgres),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	connMaxLifetime := utils.GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	return DatabaseConfig{
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "planets"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:       utils.GetEnv("REDIS_URL", ""),
		Host:      utils.GetEnv("REDIS_HOST", "localhost"),
		Port:      utils.GetEnv("REDIS_PORT", "6379"),
		Password:  utils.GetEnv("REDIS_PASSWORD", ""),
		DB:        utils.GetEnvInt("REDIS_DB", 0),
		KeyPrefix: utils.GetEnv("REDIS_KEY_PREFIX", "planets"),
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		JSONFormat: environment == "production",
	}
}

func loadRateLimitConfig() RateLimitConfig {
	requestsPerSecond, err := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	if err != nil {
		requestsPerSecond = 10
	}

	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 20),
		TrustProxy:        utils.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: utils.GetEnvBool("METRICS_ENABLED", true),
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Server.URL == "" {
		return fmt.Errorf("SERVER_URL is required")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Host == "" {
			return fmt.Errorf("REDIS_URL or REDIS_HOST is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST_SIZE must be positive")
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
