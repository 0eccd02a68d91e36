// Package config provides configuration loading and validation for the
// pipeline. The configuration is built exactly once at process start and
// passed into each component; no component reads process state directly.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Defaults mirror the behavior of earlier deployments.
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultMinContentChars = 1000
	DefaultOutputDir       = "outputs"
	DefaultProfilePath     = "config/user.json"
	DefaultGistFile        = "cronjob_input.txt"
	DefaultSMTPPort        = 465
)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host" validate:"required_if=Enabled true"`
	Port     int    `json:"port" validate:"min=0,max=65535"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from" validate:"omitempty,email"`
	To       string `json:"to" validate:"omitempty,email"`
}

// GistConfig holds settings for the external source list.
type GistConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token" validate:"required_if=Enabled true"`
	ID      string `json:"id" validate:"required_if=Enabled true"`
	File    string `json:"file"`
}

// Config is the process configuration.
type Config struct {
	DatabaseURL string `json:"database_url" validate:"required"`
	APIKey      string `json:"api_key"`

	// Pipeline tuning
	PollIntervalSeconds int `json:"poll_interval_seconds" validate:"min=0"`
	MinContentChars     int `json:"min_content_chars" validate:"min=0"`

	// Candidate identity and artifact layout
	OutputDir   string `json:"output_dir"`
	ProfilePath string `json:"profile_path"`
	FullName    string `json:"full_name"`
	FileName    string `json:"file_name"`

	Email EmailConfig `json:"email"`
	Gist  GistConfig  `json:"gist"`

	Verbose bool `json:"verbose,omitempty"`
}

// PollInterval returns the scheduler tick interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load builds the configuration from an optional JSON file plus environment
// overrides, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config. Environment wins
// over the file, matching how operators tweak a deployed instance.
func (c *Config) applyEnv() {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.APIKey, "GEMINI_API_KEY")
	setInt(&c.PollIntervalSeconds, "POLL_INTERVAL_SECONDS")
	setInt(&c.MinContentChars, "MIN_CONTENT_CHARS")
	setString(&c.OutputDir, "OUTPUT_DIR")
	setString(&c.ProfilePath, "USER_PROFILE")
	setString(&c.FullName, "FULL_NAME")
	setString(&c.FileName, "FILE_NAME")

	setBool(&c.Email.Enabled, "EMAIL_ENABLED")
	setString(&c.Email.Host, "SMTP_SERVER")
	setInt(&c.Email.Port, "SMTP_PORT")
	setString(&c.Email.Username, "SMTP_USERNAME")
	setString(&c.Email.Password, "SMTP_PASSWORD")
	setString(&c.Email.From, "EMAIL_FROM")
	setString(&c.Email.To, "EMAIL_TO")

	setBool(&c.Gist.Enabled, "GIST_INPUT")
	setString(&c.Gist.Token, "GITHUB_TOKEN")
	setString(&c.Gist.ID, "GIST_ID")
	setString(&c.Gist.File, "GIST_FILE")
}

func (c *Config) applyDefaults() {
	if c.MinContentChars == 0 {
		c.MinContentChars = DefaultMinContentChars
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ProfilePath == "" {
		c.ProfilePath = DefaultProfilePath
	}
	if c.FileName == "" {
		c.FileName = "candidate"
	}
	if c.Email.Port == 0 {
		c.Email.Port = DefaultSMTPPort
	}
	if c.Gist.File == "" {
		c.Gist.File = DefaultGistFile
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		} else {
			*dst = val == "1"
		}
	}
}
