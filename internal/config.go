package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/omnibar/internal/browser"
	"github.com/starford/omnibar/internal/classifier"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Search  SearchConfig      `yaml:"search"`
	Browser BrowserConfig     `yaml:"browser"`
	Journal JournalConfig     `yaml:"journal"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Browser.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
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

// SearchConfig controls the fallback for inputs that are not addresses.
type SearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	Encoding string `yaml:"encoding"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.Encoding == "" {
		c.Encoding = classifier.EncodingPlus
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.RequestURL),
		validation.Field(&c.Encoding, validation.In(classifier.EncodingPlus, classifier.EncodingPercent)),
	)
}

// Resolver builds a classifier from the search settings.
func (c *SearchConfig) Resolver() *classifier.Resolver {
	return classifier.New(
		classifier.WithSearchEndpoint(c.Endpoint),
		classifier.WithQueryEncoding(c.Encoding),
	)
}

// BrowserConfig holds the headless shell settings.
type BrowserConfig struct {
	HomePage  string        `yaml:"home_page"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Validate validates the browser configuration.
func (c *BrowserConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HomePage, validation.Required, is.RequestURL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// JournalConfig holds the visit journal database location.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
		Search: SearchConfig{
			Endpoint: classifier.DefaultSearchEndpoint,
			Encoding: classifier.EncodingPlus,
		},
		Browser: BrowserConfig{
			HomePage:  browser.DefaultHomePage,
			UserAgent: "omnibar/1.0",
			Timeout:   15 * time.Second,
		},
		Journal: JournalConfig{
			Path: "./omnibar.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
