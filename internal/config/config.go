package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the chat server.
type Config struct {
	Port          string
	MongoURI      string
	DBName        string
	AllowedOrigin string
	// SessionBuffer is the per-session outbound queue size. A session whose
	// queue overflows during a broadcast is disconnected.
	SessionBuffer int
}

// LoadConfig reads settings from a .env file and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables")
	}

	return &Config{
		Port:          getEnv("PORT", "3000"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "discord_clone"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		SessionBuffer: getEnvInt("SESSION_BUFFER", 32),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s value %q, using default %d", key, value, fallback)
		return fallback
	}
	return n
}
