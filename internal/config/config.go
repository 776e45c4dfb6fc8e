package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Date parsing policies for the source's date column.
const (
	DatePolicyStrict   = "strict"
	DatePolicyTolerant = "tolerant"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort       = 8080
	DefaultStreamInterval = 30 * time.Second
	DefaultCacheTTL       = time.Hour
	DefaultFetchTimeout   = 30 * time.Second
	DefaultDateLayout     = "2/1/2006"
	DefaultTitle          = "Condensate Performance Dashboard"
	DefaultExportFilename = "condensate_filtered.csv"

	DefaultSourceURL = "https://docs.google.com/spreadsheets/d/1G_ikK60FZUgctnM7SLZ4Ss0p6demBrlCwIre27fXsco/export?format=csv"
)

// Config is the top-level configuration tree.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Source    Source          `yaml:"source"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the dashboard, REST API and WebSocket stream listen on.
	HTTPPort int `yaml:"http_port"`

	// StreamInterval controls how often the default-range summary is pushed
	// to connected WebSocket clients.
	StreamInterval time.Duration `yaml:"stream_interval"`

	// Gzip enables response compression. Pointer so an explicit false survives defaults.
	Gzip *bool `yaml:"gzip"`
}

// GzipEnabled reports whether responses should be compressed (default true).
func (s ServerConfig) GzipEnabled() bool {
	return s.Gzip == nil || *s.Gzip
}

// Source describes the remote spreadsheet export the dataset is loaded from.
type Source struct {
	// URL is the CSV export endpoint. It is also the cache key.
	URL string `yaml:"url"`

	// CacheTTL is how long a loaded dataset is served before it is re-fetched.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Timeout bounds a single fetch.
	Timeout time.Duration `yaml:"timeout"`

	// DatePolicy is one of: strict | tolerant.
	DatePolicy string `yaml:"date_policy"`

	// DateLayout is the Go time layout used by the strict policy.
	DateLayout string `yaml:"date_layout"`

	// Auth configures credentials for private export endpoints.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies how the loader authenticates to the source.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name used when Mode == "apikey".
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth username.
	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// EffectiveHeader returns the configured API key header, or "X-API-Key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "X-API-Key"
}

// TLSConfig holds TLS dial options for the source.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// DashboardConfig controls presentation details.
type DashboardConfig struct {
	Title          string `yaml:"title"`
	ShowTargetLine *bool  `yaml:"show_target_line"`
	ExportFilename string `yaml:"export_filename"`
}

// TargetLine reports whether the trend chart draws the average target line (default true).
func (d DashboardConfig) TargetLine() bool {
	return d.ShowTargetLine == nil || *d.ShowTargetLine
}

// Load reads and parses the config file at path. An empty path returns the
// defaults. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			StreamInterval: DefaultStreamInterval,
		},
		Source: Source{
			URL:        DefaultSourceURL,
			CacheTTL:   DefaultCacheTTL,
			Timeout:    DefaultFetchTimeout,
			DatePolicy: DatePolicyStrict,
			DateLayout: DefaultDateLayout,
		},
		Dashboard: DashboardConfig{
			Title:          DefaultTitle,
			ExportFilename: DefaultExportFilename,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}

	src := cfg.Source
	if src.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	u, err := url.Parse(src.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("source.url %q must be an http(s) URL", src.URL)
	}
	if src.CacheTTL <= 0 {
		return fmt.Errorf("source.cache_ttl must be positive")
	}
	if src.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	switch src.DatePolicy {
	case DatePolicyStrict, DatePolicyTolerant:
	default:
		return fmt.Errorf("source.date_policy %q unknown: want strict|tolerant", src.DatePolicy)
	}
	if src.DatePolicy == DatePolicyStrict && src.DateLayout == "" {
		return fmt.Errorf("source.date_layout is required for the strict policy")
	}
	switch src.Auth.Mode {
	case "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("source.auth.mode %q unknown: want apikey|bearer|basic|none", src.Auth.Mode)
	}

	if cfg.Dashboard.ExportFilename == "" {
		return fmt.Errorf("dashboard.export_filename must not be empty")
	}
	return nil
}
