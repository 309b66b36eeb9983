package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix shared by every environment variable this module reads.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Config carries all runtime settings for the client and the dev server.
type Config struct {
	App       AppConfig
	API       APIConfig
	State     StateConfig
	DevServer DevServerConfig
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.State.ensureDir(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the REST client at the storefront platform.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:5000/api"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url %q: %w", a.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api base url %q must be http or https", a.BaseURL)
	}
	return nil
}

// StateConfig locates the local-storage file shared by the session and cart stores.
type StateConfig struct {
	Dir string `envconfig:"STOREFRONT_STATE_DIR"`
}

// File returns the path of the persisted state file.
func (s StateConfig) File() string {
	return filepath.Join(s.Dir, "state.json")
}

func (s *StateConfig) ensureDir() error {
	if s.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve state dir: %w", err)
		}
		s.Dir = filepath.Join(home, ".storefront")
	}
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("create state dir %q: %w", s.Dir, err)
	}
	return nil
}

// DevServerConfig configures the local fake of the platform API.
type DevServerConfig struct {
	Port              string        `envconfig:"STOREFRONT_DEVSERVER_PORT" default:"5000"`
	DSN               string        `envconfig:"STOREFRONT_DEVSERVER_DSN"`
	Driver            string        `envconfig:"STOREFRONT_DEVSERVER_DRIVER" default:"sqlite"`
	JWTSecret         string        `envconfig:"STOREFRONT_DEVSERVER_JWT_SECRET" default:"devserver-local-secret"`
	JWTIssuer         string        `envconfig:"STOREFRONT_DEVSERVER_JWT_ISSUER" default:"storefront-devserver"`
	JWTExpiration     time.Duration `envconfig:"STOREFRONT_DEVSERVER_JWT_EXPIRATION" default:"24h"`
	Seed              bool          `envconfig:"STOREFRONT_DEVSERVER_SEED" default:"true"`
	ShutdownGrace     time.Duration `envconfig:"STOREFRONT_DEVSERVER_SHUTDOWN_GRACE" default:"10s"`
	CORSAllowedOrigin string        `envconfig:"STOREFRONT_DEVSERVER_CORS_ORIGIN" default:"*"`
}
