// Package config resolves credentials and limits from the config file and
// environment. Credential storage itself is an external concern; this
// package only reads resolved values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zen-systems/clipflow/pkg/provider"
	"github.com/zen-systems/clipflow/pkg/unit"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	OpenRouterAPIKey   string
	OpenRouterReferrer string
	OpenRouterTitle    string
	OllamaEndpoint     string
	BedrockBearerToken string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string

	RequestTimeout  time.Duration
	PipelineTimeout time.Duration
	ContentLimit    int

	ConfigDir string
}

// FileConfig represents the structure of ~/.clipflow/config.yaml
type FileConfig struct {
	APIKeys    APIKeysConfig    `yaml:"api_keys"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	AWS        AWSConfig        `yaml:"aws"`
	Limits     LimitsConfig     `yaml:"limits"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	OpenAI     string `yaml:"openai"`
	Anthropic  string `yaml:"anthropic"`
	OpenRouter string `yaml:"openrouter"`
}

// OpenRouterConfig holds the attribution headers OpenRouter asks for.
type OpenRouterConfig struct {
	Referrer string `yaml:"referrer"`
	Title    string `yaml:"title"`
}

// OllamaConfig holds the local service endpoint.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// AWSConfig holds Bedrock credentials from file.
type AWSConfig struct {
	BearerToken     string `yaml:"bearer_token"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string `yaml:"region"`
}

// LimitsConfig holds timeout and size limits from file.
type LimitsConfig struct {
	RequestTimeoutSeconds  int `yaml:"request_timeout_seconds"`
	PipelineTimeoutSeconds int `yaml:"pipeline_timeout_seconds"`
	ContentLimitBytes      int `yaml:"content_limit_bytes"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		AnthropicAPIKey:    getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenRouterAPIKey:   getEnvOrDefault("OPENROUTER_API_KEY", fileConfig.APIKeys.OpenRouter),
		OpenRouterReferrer: getEnvOrDefault("OPENROUTER_REFERRER", fileConfig.OpenRouter.Referrer),
		OpenRouterTitle:    getEnvOrDefault("OPENROUTER_TITLE", fileConfig.OpenRouter.Title),
		OllamaEndpoint:     getEnvOrDefault("OLLAMA_ENDPOINT", fileConfig.Ollama.Endpoint),
		BedrockBearerToken: getEnvOrDefault("AWS_BEARER_TOKEN_BEDROCK", fileConfig.AWS.BearerToken),
		AWSAccessKeyID:     getEnvOrDefault("AWS_ACCESS_KEY_ID", fileConfig.AWS.AccessKeyID),
		AWSSecretAccessKey: getEnvOrDefault("AWS_SECRET_ACCESS_KEY", fileConfig.AWS.SecretAccessKey),
		AWSRegion:          getEnvOrDefault("AWS_REGION", fileConfig.AWS.Region),
		RequestTimeout:     secondsOrDefault("CLIPFLOW_REQUEST_TIMEOUT", fileConfig.Limits.RequestTimeoutSeconds, unit.DefaultTimeout),
		PipelineTimeout:    secondsOrDefault("CLIPFLOW_PIPELINE_TIMEOUT", fileConfig.Limits.PipelineTimeoutSeconds, 60*time.Second),
		ContentLimit:       intOrDefault("CLIPFLOW_CONTENT_LIMIT", fileConfig.Limits.ContentLimitBytes, unit.DefaultContentLimit),
		ConfigDir:          configDir,
	}

	if cfg.OllamaEndpoint == "" {
		cfg.OllamaEndpoint = provider.DefaultOllamaEndpoint
	}

	return cfg, nil
}

// Providers constructs the provider clients from the resolved credentials,
// keyed by name. Every provider is constructed; IsConfigured distinguishes
// usable ones.
func (c *Config) Providers() map[string]provider.Provider {
	return map[string]provider.Provider{
		"openai":     provider.NewOpenAIProvider(c.OpenAIAPIKey),
		"anthropic":  provider.NewAnthropicProvider(c.AnthropicAPIKey),
		"openrouter": provider.NewOpenRouterProvider(c.OpenRouterAPIKey, c.OpenRouterReferrer, c.OpenRouterTitle),
		"ollama":     provider.NewOllamaProvider(c.OllamaEndpoint),
		"bedrock":    provider.NewBedrockProvider(c.BedrockBearerToken, c.AWSAccessKeyID, c.AWSSecretAccessKey, c.AWSRegion),
	}
}

// HasProvider returns true if the named provider has usable credentials.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "openai":
		return c.OpenAIAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openrouter":
		return c.OpenRouterAPIKey != ""
	case "ollama":
		return true
	case "bedrock":
		return c.BedrockBearerToken != "" || (c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != "")
	default:
		return false
	}
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

// secondsOrDefault resolves a duration given in whole seconds from env,
// then file, then the fallback.
func secondsOrDefault(envVar string, fileSeconds int, fallback time.Duration) time.Duration {
	if val := os.Getenv(envVar); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if fileSeconds > 0 {
		return time.Duration(fileSeconds) * time.Second
	}
	return fallback
}

// intOrDefault resolves an integer from env, then file, then the fallback.
func intOrDefault(envVar string, fileValue int, fallback int) int {
	if val := os.Getenv(envVar); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	if fileValue > 0 {
		return fileValue
	}
	return fallback
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".clipflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
