package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// LlamaCPPBaseURL points at a local llama.cpp server exposing the
	// OpenAI-compatible API (e.g. http://localhost:8080/v1).
	LlamaCPPBaseURL string

	// OllamaHost points at a local Ollama daemon.
	OllamaHost string

	// Hosted fallback credentials, used only when no local inference
	// process is reachable.
	AnthropicAPIKey string
	GoogleAPIKey    string

	Selector  *SelectorConfig
	ConfigDir string
}

// FileConfig represents the structure of ~/.modelgate/config.yaml
type FileConfig struct {
	Endpoints EndpointsConfig `yaml:"endpoints"`
	APIKeys   APIKeysConfig   `yaml:"api_keys"`
}

// EndpointsConfig holds local inference endpoint configuration from file.
type EndpointsConfig struct {
	LlamaCPP string `yaml:"llamacpp"`
	Ollama   string `yaml:"ollama"`
}

// APIKeysConfig holds hosted fallback API keys from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	Google    string `yaml:"google"`
}

// Load reads configuration from config files and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		LlamaCPPBaseURL: getEnvOrDefault("MODELGATE_LLAMACPP_URL", fileConfig.Endpoints.LlamaCPP),
		OllamaHost:      getEnvOrDefault("OLLAMA_HOST", fileConfig.Endpoints.Ollama),
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		ConfigDir:       configDir,
	}

	selectorPath := filepath.Join(configDir, "selector.yaml")
	if _, err := os.Stat(selectorPath); err == nil {
		selector, err := LoadSelectorConfig(selectorPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load selector config: %w", err)
		}
		cfg.Selector = selector
	} else {
		cfg.Selector = DefaultSelectorConfig()
	}

	return cfg, nil
}

// LoadWithSelectorFile loads config with a specific selector file.
func LoadWithSelectorFile(selectorPath string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	selector, err := LoadSelectorConfig(selectorPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load selector config from %s: %w", selectorPath, err)
	}
	cfg.Selector = selector

	return cfg, nil
}

// HasLocalInference returns true if a local inference endpoint is configured.
func (c *Config) HasLocalInference() bool {
	return c.LlamaCPPBaseURL != "" || c.OllamaHost != ""
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".modelgate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
