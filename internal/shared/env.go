package shared

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGeminiKey   = "GEMINI_API_KEY"
	EnvPlacesKey   = "GOOGLE_MAPS_API_KEY"
	EnvDatabase    = "PINMAP_DATABASE"
	EnvRedisAddr   = "PINMAP_REDIS_ADDR"
	EnvRedisDB     = "PINMAP_REDIS_DB"
	EnvLLMProvider = "PINMAP_LLM_PROVIDER"
)

// LoadEnvFile loads variables from the given .env files into the process environment.
//
// Missing files are not an error; existing variables are never overwritten.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overrides credentials and paths in config from the environment.
func ApplyEnv(config *Config) {
	setFromEnv(&config.Credentials.OpenAI.APIKey, EnvOpenAIKey)
	setFromEnv(&config.Credentials.Gemini.APIKey, EnvGeminiKey)
	setFromEnv(&config.Credentials.Places.APIKey, EnvPlacesKey)
	setFromEnv(&config.Database.Path, EnvDatabase)
	setFromEnv(&config.Cache.RedisAddr, EnvRedisAddr)
	setFromEnv(&config.LLM.Provider, EnvLLMProvider)

	if v := os.Getenv(EnvRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Cache.RedisDB = n
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
