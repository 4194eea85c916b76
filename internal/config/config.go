package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Environment string
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string
	CORSOrigin  string

	OTPExpiryMinutes int
	SaltRounds       int

	Mail MailConfig

	AuthRateLimitMax           int
	AuthRateLimitWindowMinutes int
	GlobalRateLimitMax         int

	LogLevel  string
	LogFormat string
}

// MailConfig describes the SMTP relay used for verification emails.
type MailConfig struct {
	Host        string
	Port        int
	Secure      bool
	User        string
	Password    string
	FromName    string
	FromAddress string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/restopos?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),

		OTPExpiryMinutes: getEnvInt("OTP_EXPIRY_MINUTES", 15),
		SaltRounds:       getEnvInt("SALT_ROUNDS", 10),

		Mail: MailConfig{
			Host:        os.Getenv("EMAIL_HOST"),
			Port:        getEnvInt("EMAIL_PORT", 587),
			Secure:      getEnvBool("EMAIL_SECURE", false),
			User:        os.Getenv("EMAIL_USER"),
			Password:    os.Getenv("EMAIL_PASSWORD"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Restaurant POS"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@localhost"),
		},

		AuthRateLimitMax:           getEnvInt("AUTH_RATE_LIMIT_MAX", 20),
		AuthRateLimitWindowMinutes: getEnvInt("AUTH_RATE_LIMIT_WINDOW_MINUTES", 15),
		GlobalRateLimitMax:         getEnvInt("GLOBAL_RATE_LIMIT_MAX", 100),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// OTPExpiry is the lifetime of a verification code and its pending registration.
func (c *Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTPExpiryMinutes) * time.Minute
}

// AuthRateWindow is the sliding window used by the auth route limiter.
func (c *Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateLimitWindowMinutes) * time.Minute
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
