// Package config builds the process configuration once at startup.
//
// All components receive a *Config explicitly; nothing reads environment
// variables after Load returns.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the bridge and the token server need at startup.
type Config struct {
	// LiveKit room transport
	LiveKitURL       string // wss:// URL of the LiveKit deployment
	LiveKitAPIKey    string
	LiveKitAPISecret string

	// Realtime model
	OpenAIKey string

	// Task service
	TodoistToken string

	// Room the worker attaches to when none is given on the command line
	RoomName string

	// Listen address for the token server
	TokenAddr string
}

// Load reads configuration from the environment (a .env file is honored if
// present) and fails on the first missing required value.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		LiveKitURL:       os.Getenv("LIVEKIT_URL"),
		LiveKitAPIKey:    os.Getenv("LIVEKIT_API_KEY"),
		LiveKitAPISecret: os.Getenv("LIVEKIT_API_SECRET"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		TodoistToken:     os.Getenv("TODOIST_TOKEN"),
		RoomName:         os.Getenv("ROOM_NAME"),
		TokenAddr:        os.Getenv("TOKEN_ADDR"),
	}
	if cfg.RoomName == "" {
		cfg.RoomName = "demo-room"
	}
	if cfg.TokenAddr == "" {
		cfg.TokenAddr = ":8787"
	}

	required := []struct {
		name  string
		value string
	}{
		{"LIVEKIT_URL", cfg.LiveKitURL},
		{"LIVEKIT_API_KEY", cfg.LiveKitAPIKey},
		{"LIVEKIT_API_SECRET", cfg.LiveKitAPISecret},
		{"OPENAI_API_KEY", cfg.OpenAIKey},
		{"TODOIST_TOKEN", cfg.TodoistToken},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", r.name)
		}
	}
	return cfg, nil
}
