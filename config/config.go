package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	DBName string
	JWTKey string

	RemoteApiURL string // Base URL of the remote table store
	RemoteApiKey string // API key sent with every remote request

	SyncIntervalMinutes int   // Periodic sync cycle while online
	MaxVideoSizeMB      int64 // Upload cap for offline lesson videos
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
		Port:   getEnv("PORT", "3000"),
		DBName: getEnv("DB_NAME", "replica.db"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		RemoteApiURL: getEnv("REMOTE_API_URL", "http://localhost:54321"),
		RemoteApiKey: getEnv("REMOTE_API_KEY", ""),

		SyncIntervalMinutes: getEnvInt("SYNC_INTERVAL_MINUTES", 5),
		MaxVideoSizeMB:      int64(getEnvInt("MAX_VIDEO_SIZE_MB", 100)),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.RemoteApiKey == "" {
		log.Println("Warning: REMOTE_API_KEY is empty. Remote sync will likely be rejected.")
	}
}

// getEnv fetches an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt fetches an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid value for %s. Using default: %d", key, defaultValue)
	}
	return defaultValue
}
