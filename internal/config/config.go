package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string
	GroqAPIKey    string
	GroqBaseURL   string
	GroqModel     string
	GroqTimeout   time.Duration
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "heritage_chatbot"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		GroqAPIKey:    getenv("GROQ_API_KEY", ""),
		GroqBaseURL:   getenv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:     getenv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GroqTimeout:   time.Duration(getenvInt("GROQ_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
