package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSupabase = "supabase"

	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	StoreDriver   string
	DatabaseURL   string
	SupabaseURL   string
	SupabaseKey   string
	MigrationsDir string

	// Redis (presence); empty disables the hub
	RedisURL string

	// Anonymous presence tokens
	SessionSecret string

	// Text generation
	LLM LLMConfig

	// Moderation
	OpenAIModerationKey string

	// Prayer requests
	PrayerMasterPassword string

	// Frontend
	FrontendURL string
}

// LLMConfig selects and configures the text-generation provider. Keys are
// optional; a missing key disables the persona routes at request time.
type LLMConfig struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	GroqAPIKey      string
	GroqModel       string
	GroqBaseURL     string
	OpenAIAPIKey    string
	OpenAIModel     string
	ConcurrentReqs  int
	ClassifyTimeout time.Duration
	ChatTimeout     time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		StoreDriver:          getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		SessionSecret:        mustGetEnv("SESSION_SECRET"),
		LLM:                  LoadLLM(),
		OpenAIModerationKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		PrayerMasterPassword: getEnvOrDefault("PRAYER_MASTER_PASSWORD", ""),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	case StoreDriverSupabase:
		cfg.SupabaseURL = mustGetEnv("SUPABASE_URL")
		cfg.SupabaseKey = mustGetEnv("SUPABASE_KEY")
	default:
		panic(fmt.Sprintf("unsupported STORE_DRIVER %q", cfg.StoreDriver))
	}

	return cfg
}

// LoadLLM reads only the text-generation settings. The terminal client uses
// it directly so it needs no database configuration.
func LoadLLM() LLMConfig {
	godotenv.Load()

	return LLMConfig{
		Provider:        getEnvOrDefault("LLM_PROVIDER", ProviderGemini),
		GeminiAPIKey:    getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:     getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GroqAPIKey:      getEnvOrDefault("GROQ_API_KEY", ""),
		GroqModel:       getEnvOrDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqBaseURL:     getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		ConcurrentReqs:  getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		ClassifyTimeout: time.Duration(getEnvAsIntOrDefault("CLASSIFY_TIMEOUT_SECONDS", 20)) * time.Second,
		ChatTimeout:     time.Duration(getEnvAsIntOrDefault("CHAT_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
