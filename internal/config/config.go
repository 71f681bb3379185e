// Package config handles chatline configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the root configuration structure for chatline.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// ServerConfig locates the chat server and the session credential.
type ServerConfig struct {
	// BaseURL is the HTTP endpoint for history, send, read and directory calls.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// WSURL is the push-stream endpoint. Empty derives it from BaseURL.
	WSURL string `yaml:"ws_url" mapstructure:"ws_url"`

	// Token is the bearer credential. Prefer TokenFile or CHATLINE_SERVER_TOKEN
	// over writing it into a config file.
	Token string `yaml:"token" mapstructure:"token"`

	// TokenFile reads the credential from a file at startup.
	TokenFile string `yaml:"token_file" mapstructure:"token_file"`

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI owns the terminal, so
	// console output goes here instead of stderr when set.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains presentation settings.
type TUIConfig struct {
	// Theme selects the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:5000",
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must be an http(s) URL")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	return nil
}

// ResolveToken returns the session credential, reading TokenFile if set.
// An empty result is valid: the client runs anonymously.
func (c *Config) ResolveToken() (string, error) {
	if c.Server.TokenFile != "" {
		data, err := os.ReadFile(c.Server.TokenFile)
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(c.Server.Token), nil
}

// PushURL returns the push-stream endpoint, deriving it from the base URL
// when not set explicitly.
func (c *Config) PushURL() string {
	if c.Server.WSURL != "" {
		return c.Server.WSURL
	}
	return c.Server.BaseURL
}
