package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		// Default to ./config in current working directory
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	Homebox HomeboxConfig `yaml:"homebox"`
	Model   ModelConfig   `yaml:"model"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Safety  SafetyConfig  `yaml:"safety"`
}

// HomeboxConfig Homebox API connection configuration
type HomeboxConfig struct {
	BaseURL              string `yaml:"base_url"`
	Token                string `yaml:"token"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	CFAccessClientID     string `yaml:"cf_access_client_id"`
	CFAccessClientSecret string `yaml:"cf_access_client_secret"`
	TimeoutSeconds       int    `yaml:"timeout_seconds"`
	PageSize             int    `yaml:"page_size"`
	UserAgent            string `yaml:"user_agent"`
}

// ModelConfig LLM model configuration (used by the chat REPL)
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// StoreConfig local storage configuration
type StoreConfig struct {
	DBPath             string `yaml:"db_path"`
	MaxContextMessages int    `yaml:"max_context_messages"`
	CacheTTLMinutes    int    `yaml:"cache_ttl_minutes"`
}

// ServerConfig tool server configuration
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// SafetyConfig safety configuration
type SafetyConfig struct {
	ConfirmWrites bool `yaml:"confirm_writes"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Homebox: HomeboxConfig{
			BaseURL:        "",
			TimeoutSeconds: 15,
			PageSize:       20,
			UserAgent:      "Boxmate/0.1",
		},
		Model: ModelConfig{
			APIKey:      "",
			BaseURL:     "https://api.deepseek.com",
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Store: StoreConfig{
			DBPath:             filepath.Join(homeDir, ".boxmate", "boxmate.db"),
			MaxContextMessages: 20,
			CacheTTLMinutes:    5,
		},
		Server: ServerConfig{
			Addr:   "127.0.0.1:8086",
			APIKey: "",
		},
		Safety: SafetyConfig{
			ConfirmWrites: true,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create default config
		cfg := DefaultConfig()
		mergeSecrets(cfg)

		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	cfg := DefaultConfig() // Use default values as base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeSecrets(cfg)

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeSecrets fills empty sensitive fields from the .secrets file
func mergeSecrets(cfg *Config) {
	secrets, _ := LoadSecrets()
	if secrets == nil {
		return
	}
	if cfg.Homebox.Token == "" {
		cfg.Homebox.Token = secrets.GetHomeboxToken()
	}
	if cfg.Homebox.Password == "" {
		cfg.Homebox.Password = secrets.GetHomeboxPassword()
	}
	if cfg.Homebox.CFAccessClientSecret == "" {
		cfg.Homebox.CFAccessClientSecret = secrets.GetCFAccessClientSecret()
	}
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = secrets.GetLLMAPIKey()
	}
	if cfg.Server.APIKey == "" {
		cfg.Server.APIKey = secrets.GetServerAPIKey()
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Serialize config
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Add header comment
	content := "# Boxmate Configuration File\n# For more info: https://github.com/hession/boxmate\n\n" + string(data)

	// Write file
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate homebox config
	if strings.TrimSpace(c.Homebox.BaseURL) == "" {
		return fmt.Errorf("config error: homebox.base_url cannot be empty")
	}
	if c.Homebox.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: homebox.timeout_seconds must be greater than 0")
	}
	if c.Homebox.PageSize <= 0 {
		return fmt.Errorf("config error: homebox.page_size must be greater than 0")
	}
	// One CF Access credential without the other is a misconfiguration
	hasCFID := strings.TrimSpace(c.Homebox.CFAccessClientID) != ""
	hasCFSecret := strings.TrimSpace(c.Homebox.CFAccessClientSecret) != ""
	if hasCFID != hasCFSecret {
		return fmt.Errorf("config error: homebox.cf_access_client_id and cf_access_client_secret must be set together")
	}

	// Validate model config
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config error: model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}

	// Validate store config
	if c.Store.DBPath == "" {
		return fmt.Errorf("config error: store.db_path cannot be empty")
	}
	if c.Store.MaxContextMessages <= 0 {
		return fmt.Errorf("config error: store.max_context_messages must be greater than 0")
	}
	if c.Store.CacheTTLMinutes < 0 {
		return fmt.Errorf("config error: store.cache_ttl_minutes cannot be negative")
	}

	// Validate server config
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config error: server.addr cannot be empty")
	}

	return nil
}

// IsHomeboxConfigured checks if the Homebox connection is usable
func (c *Config) IsHomeboxConfigured() bool {
	if strings.TrimSpace(c.Homebox.BaseURL) == "" {
		return false
	}
	return c.Homebox.Token != "" || (c.Homebox.Username != "" && c.Homebox.Password != "")
}

// IsAPIKeyConfigured checks if the LLM API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`Boxmate Configuration:
  Homebox:
    Base URL: %s
    Token: %s
    Username: %s
    CF Access Client ID: %s
    CF Access Client Secret: %s
    Timeout Seconds: %d
    Page Size: %d
    User Agent: %s
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Temperature: %.1f
    Max Tokens: %d
  Store:
    DB Path: %s
    Max Context Messages: %d
    Cache TTL Minutes: %d
  Server:
    Addr: %s
    API Key: %s
  Safety:
    Confirm Writes: %v`,
		c.Homebox.BaseURL,
		redactSecret(c.Homebox.Token),
		c.Homebox.Username,
		c.Homebox.CFAccessClientID,
		redactSecret(c.Homebox.CFAccessClientSecret),
		c.Homebox.TimeoutSeconds,
		c.Homebox.PageSize,
		c.Homebox.UserAgent,
		redactSecret(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.Temperature,
		c.Model.MaxTokens,
		c.Store.DBPath,
		c.Store.MaxContextMessages,
		c.Store.CacheTTLMinutes,
		c.Server.Addr,
		redactSecret(c.Server.APIKey),
		c.Safety.ConfirmWrites,
	)
}

func redactSecret(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
