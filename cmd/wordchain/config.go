package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/wordchain/pkg/markov"
)

// GeneratorConfig holds the defaults used to build chains and generate texts.
type GeneratorConfig struct {
	Order       int    `json:"order" yaml:"order"`
	MinLength   int    `json:"min_length" yaml:"min_length"`
	MaxAttempts int    `json:"max_attempts" yaml:"max_attempts"` // 0 derives the budget from the corpus size
	Encoding    string `json:"encoding" yaml:"encoding"`
	OutputDir   string `json:"output_dir" yaml:"output_dir"`
}

// ServerConfig holds the configuration for logging, the HTTP API and the
// saved text history.
type ServerConfig struct {
	ApiAddr  string `json:"api_addr" yaml:"api_addr"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	// ArchiveDatabasePath is the SQLite database recording saved texts.
	// Empty disables the history.
	ArchiveDatabasePath string `json:"archive_database_path" yaml:"archive_database_path"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Generator *GeneratorConfig `json:"generator_config" yaml:"generator_config"`
	Server    *ServerConfig    `json:"server_config" yaml:"server_config"`
}

// DefaultGeneratorConfig creates a generator configuration with default values.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Order:       markov.DefaultOrder,
		MinLength:   markov.DefaultMinLength,
		MaxAttempts: 0,
		Encoding:    "",
		OutputDir:   ".",
	}
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:             ":7280",
		LogLevel:            "warn",
		ArchiveDatabasePath: "",
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Generator: DefaultGeneratorConfig(),
		Server:    DefaultServerConfig(),
	}
}

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig reads the configuration from the file at the given path, as
// YAML when the extension is .yaml or .yml and as JSON otherwise.
// If the file doesn't exist, it creates one with default values. An empty
// path returns the defaults without touching the filesystem.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = marshalConfig(path, config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Running with defaults is still possible.
				_, _ = fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(file, config)
	} else {
		err = json.Unmarshal(file, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A file may omit whole sections.
	if config.Generator == nil {
		config.Generator = DefaultGeneratorConfig()
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	return config, nil
}

func marshalConfig(path string, config *Config) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(config)
	}
	return json.MarshalIndent(config, "", "  ")
}

// parseLogLevel maps a configured level name to a slog.Level, falling back
// to info for unknown names.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
