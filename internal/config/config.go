// Package config loads the assistant's runtime configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-assistant/internal/ai"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
)

type Config struct {
	// HTTP server
	Port      string
	AuthToken string

	// Logging
	LogLevel  string
	LogPretty bool

	// Gemini models
	TextModel   string
	SpeechModel string
	Voice       string

	// Store backend selection
	StoreBackend    string
	BigQueryProject string
	BigQueryDataset string

	// Voice clip archive; empty bucket disables archiving
	GCSBucket string

	// Notion export; empty token disables the export command
	NotionToken      string
	NotionDatabaseID string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() *Config {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		AuthToken: getEnv("API_AUTH_TOKEN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		TextModel:   getEnv("GEMINI_TEXT_MODEL", ai.DefaultTextModel),
		SpeechModel: getEnv("GEMINI_SPEECH_MODEL", ai.DefaultSpeechModel),
		Voice:       getEnv("GEMINI_VOICE", ai.DefaultVoice),

		StoreBackend:    getEnv("STORE_BACKEND", BackendMemory),
		BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "finance"),

		GCSBucket: getEnv("GCS_BUCKET", ""),

		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),
	}
}

// Validate checks the loaded configuration for inconsistencies.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendBigQuery:
		if c.BigQueryProject == "" {
			errs = append(errs, "BIGQUERY_PROJECT is required with the bigquery backend")
		}
		if c.BigQueryDataset == "" {
			errs = append(errs, "BIGQUERY_DATASET is required with the bigquery backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid store backend %q: must be %q or %q",
			c.StoreBackend, BackendMemory, BackendBigQuery))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
