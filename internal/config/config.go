package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	LLM     LLM     `yaml:"llm"`
	Storage Storage `yaml:"storage"`
	Server  Server  `yaml:"server"`
	Uploads Uploads `yaml:"uploads"`
	Logging Logging `yaml:"logging"`
	Theme   Theme   `yaml:"theme"`
}

type LLM struct {
	Provider    string        `yaml:"provider" validate:"oneof=openai ollama"`
	Model       string        `yaml:"model"`
	OllamaURL   string        `yaml:"ollama_url" validate:"omitempty,url"`
	OpenAIModel string        `yaml:"openai_model" validate:"required"`
	OpenAIURL   string        `yaml:"openai_url" validate:"required,url"`
	APIKeyEnv   string        `yaml:"api_key_env" validate:"required"`
	MaxTokens   int           `yaml:"max_tokens" validate:"min=1"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
}

type Storage struct {
	Driver  string `yaml:"driver" validate:"oneof=memory sqlite"`
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port       int    `yaml:"port" validate:"min=1,max=65535"`
	SessionKey string `yaml:"session_key"`
}

type Uploads struct {
	MaxBytes int64 `yaml:"max_bytes" validate:"min=1"`
}

type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

type Theme struct {
	Default string `yaml:"default"`
}

// ConfigDir returns the XDG config directory for syllabud.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "syllabud")
}

// DataDir returns the XDG data directory for syllabud.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "syllabud")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/syllabud/config.yaml > ./config.yaml.
// An empty path with a nil error means no file was found and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// LoadEnv reads a .env file into the process environment if one exists,
// so the API key can live next to the config.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// Load reads and parses a config YAML file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		LLM: LLM{
			Provider:    "openai",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-3.5-turbo",
			OpenAIURL:   "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   1000,
			Timeout:     120 * time.Second,
		},
		Storage: Storage{Driver: DriverMemory},
		Server:  Server{Port: 8501},
		Uploads: Uploads{MaxBytes: 20 << 20},
		Logging: Logging{Level: "info", Format: "console"},
		Theme:   Theme{Default: "White"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// DatabasePath returns where the SQLite store lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "syllabud.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
