package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	TokenKey      string // capability token signing key
	TokenTTLHours int    // 0 disables expiry; tokens are revoked with the enrollment either way

	PaymentApiURL string // payment provider status endpoint
	PaymentApiKey string

	AttemptMaxAgeHours int // in-progress attempts older than this get swept
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		TokenKey:      getEnv("TOKEN_SECRET_KEY", "defaultSecret"),
		TokenTTLHours: getEnvInt("TOKEN_TTL_HOURS", 0),

		PaymentApiURL: getEnv("PAYMENT_API_URL", "https://api.payments.example.com/v1/"),
		PaymentApiKey: getEnv("PAYMENT_API_KEY", "defaultSecret"),

		AttemptMaxAgeHours: getEnvInt("ATTEMPT_MAX_AGE_HOURS", 24),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.TokenKey == "defaultSecret" {
		log.Println("Warning: Using default TOKEN_SECRET_KEY. Update it in your environment.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
