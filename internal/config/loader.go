package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the YAML file.
const (
	EnvStorageDriver = "OSM_STORAGE_DRIVER"
	EnvStorageDSN    = "OSM_STORAGE_DSN"
	EnvServerAddr    = "OSM_SERVER_ADDR"
	EnvLogLevel      = "OSM_LOG_LEVEL"
)

func LoadConfig(filePath string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvStorageDriver); ok && v != "" {
		c.Storage.Driver = v
	}
	if v, ok := os.LookupEnv(EnvStorageDSN); ok && v != "" {
		c.Storage.DSN = v
	}
	if v, ok := os.LookupEnv(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Observability.LogLevel = v
	}
}
