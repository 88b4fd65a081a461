package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/escapekit/escapekit/go/internal/reconcile"
)

// Config is the binary's YAML configuration.
type Config struct {
	Endpoint     string `yaml:"endpoint"`
	PushURL      string `yaml:"push_url"`
	EscapeRoomID string `yaml:"escape_room_id"`

	TeamName string `yaml:"team_name"`
	Locale   string `yaml:"locale"`

	StorePath string `yaml:"store_path"`
	Namespace string `yaml:"namespace"`

	RestoreMode      string `yaml:"restore_mode"`
	CountdownEnabled bool   `yaml:"countdown_enabled"`

	Notifications struct {
		PerMinute int `yaml:"per_minute"`
		Burst     int `yaml:"burst"`
	} `yaml:"notifications"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Env overrides for deployment without editing the file
	config.Endpoint = getEnv("ESCAPEKIT_ENDPOINT", config.Endpoint)
	config.PushURL = getEnv("ESCAPEKIT_PUSH_URL", config.PushURL)
	config.EscapeRoomID = getEnv("ESCAPEKIT_ROOM_ID", config.EscapeRoomID)
	config.Notifications.PerMinute = getEnvAsInt("ESCAPEKIT_NOTIFICATIONS_PER_MINUTE", config.Notifications.PerMinute)

	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.RestoreMode == "" {
		config.RestoreMode = string(reconcile.RestoreRequestUser)
	}
	return &config, nil
}
