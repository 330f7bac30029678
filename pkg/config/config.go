// Package config handles loading the service configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Model  ModelConfig  `toml:"model"`
	Agent  AgentConfig  `toml:"agent"`
	Data   DataConfig   `toml:"data"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ModelConfig selects the LLM provider and model.
type ModelConfig struct {
	Provider string `toml:"provider"`
	Name     string `toml:"name"`
}

// AgentConfig bounds the tool-calling loop.
type AgentConfig struct {
	MaxIterations int `toml:"max_iterations"`
}

// DataConfig locates the database and metric snapshot files.
type DataConfig struct {
	Dir         string `toml:"dir"`
	MetricsFile string `toml:"metrics_file"`
	ContentFile string `toml:"content_file"`
	DBFile      string `toml:"db_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Model: ModelConfig{
			Provider: "gemini",
			Name:     "gemini-2.0-flash",
		},
		Agent: AgentConfig{MaxIterations: 10},
		Data: DataConfig{
			Dir:         "data",
			MetricsFile: "analytics-data.json",
			ContentFile: "ugc-data.json",
			DBFile:      "growthdesk.db",
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MetricsPath returns the full path of the analytics snapshot.
func (c *Config) MetricsPath() string {
	return filepath.Join(c.Data.Dir, c.Data.MetricsFile)
}

// ContentPath returns the full path of the content snapshot.
func (c *Config) ContentPath() string {
	return filepath.Join(c.Data.Dir, c.Data.ContentFile)
}

// DBPath returns the full path of the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Data.Dir, c.Data.DBFile)
}
