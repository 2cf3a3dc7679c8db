package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chemid/internal/batch"
	"github.com/starford/chemid/internal/cache"
	"github.com/starford/chemid/internal/fetch"
	"github.com/starford/chemid/internal/pubchem"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	PubChem PubChemConfig     `yaml:"pubchem"`
	Cache   CacheConfig       `yaml:"cache"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.PubChem.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
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

// PubChemConfig holds upstream client configuration.
type PubChemConfig struct {
	BaseURL   string        `yaml:"base_url"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
	Retry     RetryConfig   `yaml:"retry"`
}

// Validate validates the PubChem configuration.
func (c *PubChemConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	return c.Retry.Validate()
}

// RetryConfig bounds retries of transport failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// Validate validates the retry configuration.
func (c *RetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.Interval, validation.Min(time.Duration(0))),
	)
}

// Policy converts the configuration into a fetch policy.
func (c RetryConfig) Policy() fetch.Policy {
	return fetch.Policy{MaxAttempts: c.MaxAttempts, Interval: c.Interval}
}

// CacheConfig selects and sizes the response cache.
//
// Mode is one of:
//   - "none": every lookup goes to PubChem.
//   - "memory" (default): in-process LRU bounded by Size entries.
//   - "sqlite": persistent table in the database file at Path.
//   - "dir": one JSON file per response under the directory Path.
type CacheConfig struct {
	Mode string        `yaml:"mode"`
	Path string        `yaml:"path"`
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = cache.ModeNone
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(cache.ModeNone, cache.ModeMemory, cache.ModeSQLite, cache.ModeDir)),
		validation.Field(&c.Path, validation.When(c.Mode == cache.ModeSQLite || c.Mode == cache.ModeDir, validation.Required)),
		validation.Field(&c.Size, validation.When(c.Mode == cache.ModeMemory, validation.Required, validation.Min(1))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Options converts the configuration into cache options.
func (c CacheConfig) Options() cache.Options {
	return cache.Options{Mode: c.Mode, Path: c.Path, Size: c.Size, TTL: c.TTL}
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
	// Normalise empty mode to "disabled".
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
	policy := fetch.DefaultPolicy()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		PubChem: PubChemConfig{
			BaseURL:   pubchem.DefaultBaseURL,
			BatchSize: batch.DefaultSize,
			Timeout:   30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts: policy.MaxAttempts,
				Interval:    policy.Interval,
			},
		},
		Cache: CacheConfig{
			Mode: cache.ModeMemory,
			Path: "./chemid-cache",
			Size: 4096,
			TTL:  24 * time.Hour,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
