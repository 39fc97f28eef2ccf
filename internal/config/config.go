// Package config loads application settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application settings.
type Config struct {
	Port   string
	DBPath string

	LogLevel  string
	LogFormat string

	CORSOrigins []string

	AHEmail    string
	AHPassword string
	AHTimeout  time.Duration
}

// Load reads settings from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:      getenv("BOODSCHAP_PORT", "8080"),
		DBPath:    getenv("BOODSCHAP_DB_PATH", "boodschap.db"),
		LogLevel:  getenv("BOODSCHAP_LOG_LEVEL", "info"),
		LogFormat: getenv("BOODSCHAP_LOG_FORMAT", "text"),

		AHEmail:    os.Getenv("AH_EMAIL"),
		AHPassword: os.Getenv("AH_PASSWORD"),
		AHTimeout:  30 * time.Second,
	}

	origins := getenv("BOODSCHAP_CORS_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
