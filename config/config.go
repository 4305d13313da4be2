package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	Environment string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Shared cache backend. Empty or unreachable means the in-process
	// fallback is used for the lifetime of the process.
	RedisURL string

	// Optional archive store. Empty disables archiving entirely.
	MongoURI string

	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string

	NewsAPIKey     string
	NewsAPIBaseURL string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	APNsKeyID       string
	APNsTeamID      string
	APNsKeyPath     string
	APNsBundleID    string
	APNsDeviceToken string

	PollInterval time.Duration
	Lookahead    time.Duration

	MarketDataCacheTTL time.Duration
	SentimentCacheTTL  time.Duration
	NewsCacheTTL       time.Duration
}

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "trading_assistant"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MongoURI: getEnv("MONGODB_URI", ""),

		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageBaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),

		NewsAPIKey:     getEnv("NEWS_API_KEY", ""),
		NewsAPIBaseURL: getEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2"),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "TradingAssistant/1.0"),

		APNsKeyID:       getEnv("APNS_KEY_ID", ""),
		APNsTeamID:      getEnv("APNS_TEAM_ID", ""),
		APNsKeyPath:     getEnv("APNS_KEY_PATH", "./certs/apns_auth_key.p8"),
		APNsBundleID:    getEnv("APNS_BUNDLE_ID", "com.tradingassistant.app"),
		APNsDeviceToken: getEnv("APNS_DEVICE_TOKEN", ""),

		PollInterval: getEnvSeconds("POLL_INTERVAL_SECONDS", 30),
		Lookahead:    getEnvSeconds("LOOKAHEAD_SECONDS", 60),

		MarketDataCacheTTL: getEnvSeconds("MARKET_DATA_CACHE_TTL", 60),
		SentimentCacheTTL:  getEnvSeconds("SENTIMENT_CACHE_TTL", 300),
		NewsCacheTTL:       getEnvSeconds("NEWS_CACHE_TTL", 600),
	}

	return config, nil
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	// Log connection info (masked for security)
	log.Printf("Connecting to database: host=%s port=%s user=%s dbname=%s",
		maskHost(cfg.DBHost),
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBName,
	)

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=prefer TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		log.Printf("Database connection error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection with ping
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get underlying database: %v", err)
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		log.Printf("Database ping failed: %v", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Printf("Database connection verified successfully")
	return db, nil
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvSeconds reads an integer number of seconds from the environment
func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	value := os.Getenv(key)
	if value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("Invalid value for %s: %q, using default %ds", key, value, defaultSeconds)
	}
	return time.Duration(defaultSeconds) * time.Second
}
