package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Vault access modes.
const (
	VaultModeFS   = "fs"
	VaultModeREST = "rest"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Analyzer AnalyzerConfig    `yaml:"analyzer"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if c.Vault.Mode == VaultModeFS {
		if err := c.SQLite.Validate(); err != nil {
			return err
		}
	}
	if err := c.Analyzer.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig selects how the Markdown vault is accessed.
//
// Mode controls the accessor:
//   - "fs" (default): notes live in a local directory at Path. The SQLite
//     search index and the filesystem watcher are active.
//   - "rest": notes are reached through an Obsidian Local REST API at
//     BaseURL with Token. No local index; search scans the vault directly.
type VaultConfig struct {
	Mode    string `yaml:"mode"`
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = VaultModeFS
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(VaultModeFS, VaultModeREST)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case VaultModeFS:
		return validation.ValidateStruct(c,
			validation.Field(&c.Path, validation.Required),
		)
	case VaultModeREST:
		return validation.ValidateStruct(c,
			validation.Field(&c.BaseURL, validation.Required),
			validation.Field(&c.Token, validation.Required),
		)
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AnalyzerConfig bounds vault-wide link analysis.
type AnalyzerConfig struct {
	MaxNotes       int `yaml:"max_notes"`
	Concurrency    int `yaml:"concurrency"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the analysis deadline as a duration.
func (c *AnalyzerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the analyzer configuration.
func (c *AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxNotes, validation.Required, validation.Min(1)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Mode: VaultModeFS,
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./mimir.db",
		},
		Analyzer: AnalyzerConfig{
			MaxNotes:       300,
			Concurrency:    8,
			TimeoutSeconds: 15,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
