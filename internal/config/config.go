// Package config provides configuration management for the wallet analyzer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Reports   ReportsConfig
	Chains    ChainsConfig
	Provider  ProviderConfig
	Narrative NarrativeConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Scoring   ScoringConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// ReportsConfig holds report storage configuration
type ReportsConfig struct {
	// Backend selects the durable store: "file" or "bolt"
	Backend string
	// Dir is the directory for per-address report files (file backend)
	Dir string
	// BoltPath is the database file path (bolt backend)
	BoltPath string
	// MaxAge is the staleness threshold for cached reports
	MaxAge time.Duration
}

// ChainsConfig holds chain configuration
type ChainsConfig struct {
	Enabled []string
	Chains  map[string]ChainConfig
}

// ChainConfig holds configuration for a specific chain
type ChainConfig struct {
	RPCPrimary   string
	RPCSecondary string
}

// ProviderConfig holds wallet-data provider configuration
type ProviderConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	TransactionLimit  int
}

// NarrativeConfig holds reasoning-service configuration
type NarrativeConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxRounds int
	SearchURL string
}

// RedisConfig holds the optional report read-cache configuration
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	TTL            time.Duration
}

// KafkaConfig holds the optional completion-event emitter configuration
type KafkaConfig struct {
	Enabled bool
	Broker  string
	Topic   string
}

// ScoringConfig holds tunable scoring thresholds.
// Defaults match the reference scoring constants.
type ScoringConfig struct {
	// MediumValueUSD is the medium-value transaction threshold
	MediumValueUSD float64
	// HighValueUSD is the high-value transaction threshold
	HighValueUSD float64
	// DustEpsilon is the balance (in whole units) below which a holding
	// is treated as economically insignificant
	DustEpsilon float64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Reports: ReportsConfig{
			Backend:  getEnv("REPORTS_BACKEND", "file"),
			Dir:      getEnv("REPORTS_DIR", "./data/reports"),
			BoltPath: getEnv("REPORTS_BOLT_PATH", "./data/reports.db"),
			MaxAge:   getEnvAsDuration("REPORTS_MAX_AGE", 30*time.Minute),
		},
		Provider: ProviderConfig{
			BaseURL:           getEnv("PROVIDER_BASE_URL", ""),
			APIKey:            getEnv("PROVIDER_API_KEY", ""),
			RequestsPerSecond: getEnvAsFloat("PROVIDER_RPS", 5),
			TransactionLimit:  getEnvAsInt("PROVIDER_TX_LIMIT", 100),
		},
		Narrative: NarrativeConfig{
			BaseURL:   getEnv("NARRATIVE_BASE_URL", ""),
			APIKey:    getEnv("NARRATIVE_API_KEY", ""),
			Model:     getEnv("NARRATIVE_MODEL", "gpt-4o-mini"),
			MaxRounds: getEnvAsInt("NARRATIVE_MAX_ROUNDS", 5),
			SearchURL: getEnv("NARRATIVE_SEARCH_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:        getEnvAsBool("REDIS_ENABLED", false),
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			TTL:            getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "wallet-reports"),
		},
		Scoring: ScoringConfig{
			MediumValueUSD: getEnvAsFloat("SCORING_MEDIUM_VALUE_USD", 1000),
			HighValueUSD:   getEnvAsFloat("SCORING_HIGH_VALUE_USD", 10000),
			DustEpsilon:    getEnvAsFloat("SCORING_DUST_EPSILON", 0.000001),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Load chain configurations
	config.Chains = loadChainConfigs()

	return config, nil
}

// loadChainConfigs loads chain-specific configurations
func loadChainConfigs() ChainsConfig {
	var enabled []string
	chains := make(map[string]ChainConfig)
	for _, chain := range strings.Split(getEnv("ENABLED_CHAINS", "ethereum,polygon,base"), ",") {
		chain = strings.TrimSpace(chain)
		if chain == "" {
			continue
		}
		enabled = append(enabled, chain)

		prefix := strings.ToUpper(chain)
		chains[chain] = ChainConfig{
			RPCPrimary:   getEnv(prefix+"_RPC_PRIMARY", ""),
			RPCSecondary: getEnv(prefix+"_RPC_SECONDARY", ""),
		}
	}

	return ChainsConfig{
		Enabled: enabled,
		Chains:  chains,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
