package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	HTTP      HTTPConfig      `toml:"http"`
	Providers ProvidersConfig `toml:"providers"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Export    ExportConfig    `toml:"export"`
}

// HTTPConfig contains settings shared by every provider session.
type HTTPConfig struct {
	Timeout int `toml:"timeout"` // seconds, 0 = client default
}

// ProvidersConfig contains per-upstream settings.
type ProvidersConfig struct {
	NetEase    NetEaseConfig    `toml:"netease"`
	Node       NodeConfig       `toml:"node"`
	Aggregator AggregatorConfig `toml:"aggregator"`
}

// NetEaseConfig configures the public NetEase web API adapter.
//
// Params and EncSecKey are pre-encrypted ciphertext for the hot comments endpoint.
// They are opaque and cannot be regenerated by songx.
type NetEaseConfig struct {
	SearchURL   string            `toml:"search_url"`
	CommentsURL string            `toml:"comments_url"`
	LyricsURL   string            `toml:"lyrics_url"`
	ExtraURL    string            `toml:"extra_url"`
	Params      string            `toml:"params"`
	EncSecKey   string            `toml:"enc_sec_key"`
	UserAgent   string            `toml:"user_agent"`
	Referer     string            `toml:"referer"`
	Cookies     map[string]string `toml:"cookies"`
}

// NodeConfig configures the self-hosted NetEase NodeJS API adapter.
type NodeConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
}

// AggregatorConfig configures the multi-platform aggregator adapter.
type AggregatorConfig struct {
	BaseURL         string `toml:"base_url"`
	UserAgent       string `toml:"user_agent"`
	Referer         string `toml:"referer"`
	DefaultPlatform string `toml:"default_platform"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ExportConfig contains defaults for batch lyrics exports.
type ExportConfig struct {
	OutputDir string  `toml:"output_dir"`
	Format    string  `toml:"format"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// Addr returns host:port for the gateway listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
