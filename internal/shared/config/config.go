package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string
	SerpAPIKey      string
	SerpAPIBaseURL  string
	OpenAIAPIKey    string
	OpenAIModel     string
	Language        string
	PageDelay       time.Duration
	BatchSize       int
	NumReviews      int
	MaxReviews      int
	NumSuggestions  int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	serpKey := os.Getenv("SERPAPI_KEY")
	if serpKey == "" {
		log.Printf("SERPAPI_KEY is not set; review and suggestion lookups will fail")
	}
	openAIKey := os.Getenv("OPENAI_API_KEY")
	if openAIKey == "" {
		log.Printf("OPENAI_API_KEY is not set; analysis generation will fail")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,
		SerpAPIKey:      serpKey,
		SerpAPIBaseURL:  getEnv("SERPAPI_BASE_URL", ""),
		OpenAIAPIKey:    openAIKey,
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-2024-08-06"),
		Language:        getEnv("LANGUAGE", "en"),
		PageDelay:       getEnvSeconds("DELAY_SECONDS", 500*time.Millisecond),
		BatchSize:       getEnvInt("BATCH_SIZE", 30),
		NumReviews:      getEnvInt("NUM_REVIEWS", 40),
		MaxReviews:      getEnvInt("MAX_REVIEWS", 150),
		NumSuggestions:  getEnvInt("NUM_SUGGESTIONS", 5),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int %q, using default %d", key, raw, def)
		return def
	}
	return val
}

// getEnvSeconds reads a float number of seconds (e.g. "0.5") into a Duration.
func getEnvSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("config env %s invalid seconds %q, using default %s", key, raw, def)
		return def
	}
	return time.Duration(val * float64(time.Second))
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
