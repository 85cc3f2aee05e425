package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type config struct {
	Port           string `yaml:"port"`
	BackendBaseURL string `yaml:"backendBaseURL"`
	StorePath      string `yaml:"storePath"`
}

// loadConfig reads the optional YAML config file and applies environment
// overrides on top. Environment variables win so a .env file or deploy
// environment can adjust a shared config file.
func loadConfig() (config, error) {
	cfg := config{
		Port:           "8980",
		BackendBaseURL: "http://localhost:5000",
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return config{}, fmt.Errorf("error getting user config dir: %w", err)
	}
	appDir := filepath.Join(cfgDir, "healthmate")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return config{}, fmt.Errorf("error creating config directory: %w", err)
	}
	cfg.StorePath = filepath.Join(appDir, "session.db")

	cfgPath := os.Getenv("HEALTHMATE_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join(appDir, "config.yaml")
	}
	if f, err := os.Open(cfgPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("HEALTHMATE_PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("HEALTHMATE_BACKEND_URL")); v != "" {
		cfg.BackendBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("HEALTHMATE_STORE_PATH")); v != "" {
		cfg.StorePath = v
	}

	if cfg.BackendBaseURL == "" {
		return config{}, fmt.Errorf("backend base URL is required")
	}
	if strings.Contains(cfg.Port, " ") {
		return config{}, fmt.Errorf("invalid port value: %q", cfg.Port)
	}

	return cfg, nil
}
