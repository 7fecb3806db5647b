package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string // empty: technique store disabled, static catalog only

	GuidesDir string
	KBPath    string

	OpenstatBaseURL  string
	OpenmeteoBaseURL string

	ModelProvider   string // "qwen" or "gemini"
	DashscopeAPIKey string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		GuidesDir: getEnv("GUIDES_DIR", "farming-guides"),
		KBPath:    getEnv("KB_PATH", "data/kb.json"),

		OpenstatBaseURL:  getEnv("OPENSTAT_BASE_URL", ""),
		OpenmeteoBaseURL: getEnv("OPENMETEO_BASE_URL", ""),

		ModelProvider:   getEnv("MODEL_PROVIDER", "qwen"),
		DashscopeAPIKey: getEnv("DASHSCOPE_API_KEY", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
