package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/contact"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Contact sinks.
const (
	SinkSQLite   = "sqlite"
	SinkHTTP     = "http"
	SinkPostgres = "postgres"
	SinkNone     = "none"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Contact ContactConfig     `yaml:"contact"`
	CORS    CORSConfig        `yaml:"cors"`
	Auth    AuthConfig        `yaml:"auth"`
	Redis   RedisConfig       `yaml:"redis"`
	Search  SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Contact.Validate(); err != nil {
		return err
	}
	if c.Contact.Sink == SinkSQLite {
		if err := c.SQLite.Validate(); err != nil {
			return err
		}
	}
	if err := c.CORS.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Redis.Validate()
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
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// ContentConfig points at the directory holding portfolio.yaml and its
// images. An empty Dir serves the built-in catalog.
type ContentConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	if c.Watch && c.Dir == "" {
		return fmt.Errorf("content: watch requires a dir")
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

// ContactConfig selects where contact submissions go.
//
// Sink is one of:
//   - "sqlite" (default): stored locally, readable through the admin API.
//   - "http": posted to a hosted REST table at Endpoint with APIKey.
//   - "postgres": inserted into DatabaseURL.
//   - "none": the contact form reports the service as unavailable.
type ContactConfig struct {
	Sink          string        `yaml:"sink"`
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	DatabaseURL   string        `yaml:"database_url"`
	SuccessWindow time.Duration `yaml:"success_window"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Validate validates the contact configuration.
func (c *ContactConfig) Validate() error {
	if c.Sink == "" {
		c.Sink = SinkSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Sink, validation.Required, validation.In(SinkSQLite, SinkHTTP, SinkPostgres, SinkNone)),
		validation.Field(&c.Endpoint,
			validation.When(c.Sink == SinkHTTP, validation.Required, is.URL),
		),
		validation.Field(&c.DatabaseURL,
			validation.When(c.Sink == SinkPostgres, validation.Required),
		),
		validation.Field(&c.SuccessWindow, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CORSConfig lists origins allowed to call the JSON API and open
// viewport sockets. Empty means same-origin only.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Validate validates the CORS configuration.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AllowedOrigins, validation.Each(validation.Required)),
	)
}

// AuthConfig holds authentication configuration for the admin API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): admin routes are not mounted.
//   - "token": Bearer token authentication; Token or TokenHash must be set.
//
// TokenHash is a bcrypt hash and takes precedence over Token.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Token     string `yaml:"token"`
	TokenHash string `yaml:"token_hash"`
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
	if c.Mode == AuthModeToken && c.Token == "" && c.TokenHash == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// RedisConfig configures the contact rate limiter. An empty URL disables it.
type RedisConfig struct {
	URL    string        `yaml:"url"`
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Validate validates the redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Limit, validation.When(c.URL != "", validation.Required, validation.Min(1))),
		validation.Field(&c.Window, validation.When(c.URL != "", validation.Required, validation.Min(time.Second))),
	)
}

// SearchConfig holds the project search index location. An empty Path keeps
// the index in memory; it is rebuilt from the catalog at startup either way.
type SearchConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Content: ContentConfig{
			Dir:   "./content",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Contact: ContactConfig{
			Sink:          SinkSQLite,
			SuccessWindow: contact.DefaultSuccessWindow,
			Timeout:       10 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Redis: RedisConfig{
			Limit:  5,
			Window: 10 * time.Minute,
		},
	}
}
