package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Destination DestinationConfig `toml:"destination"`
	Bridge      BridgeConfig      `toml:"bridge"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// SourceConfig contains the Audiobookshelf server address and credentials.
//
// Token takes precedence over the Username/Password pair.
type SourceConfig struct {
	URL      string `toml:"url"`
	Token    string `toml:"token"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DestinationConfig contains the MediaTracker server address and API token.
type DestinationConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// BridgeConfig contains connection and translation settings.
type BridgeConfig struct {
	Event                 string `toml:"event"`
	BackoffSeconds        int    `toml:"backoff_seconds"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	AuthTimeoutSeconds    int    `toml:"auth_timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains health endpoint settings. A zero port disables the server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

const (
	DefaultEvent          = "user_item_progress_updated"
	DefaultBackoff        = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultAuthTimeout    = 10 * time.Second
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides connection settings with values from the environment.
//
// lookup is usually [os.LookupEnv]; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for name, target := range map[string]*string{
		"AUDIOBOOKSHELF_URL":      &c.Source.URL,
		"AUDIOBOOKSHELF_TOKEN":    &c.Source.Token,
		"AUDIOBOOKSHELF_USERNAME": &c.Source.Username,
		"AUDIOBOOKSHELF_PASSWORD": &c.Source.Password,
		"MEDIATRACKER_URL":        &c.Destination.URL,
		"MEDIATRACKER_TOKEN":      &c.Destination.Token,
	} {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
}

// Validate reports every required setting that is missing.
//
// The returned error wraps [ErrConfig].
func (c *Config) Validate() error {
	var missing []string

	if strings.TrimSpace(c.Source.URL) == "" {
		missing = append(missing, "source.url")
	}
	if c.Source.Token == "" && (c.Source.Username == "" || c.Source.Password == "") {
		missing = append(missing, "source.token (or source.username + source.password)")
	}
	if strings.TrimSpace(c.Destination.URL) == "" {
		missing = append(missing, "destination.url")
	}
	if c.Destination.Token == "" {
		missing = append(missing, "destination.token")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Backoff returns the fixed reconnect delay. Non-positive values fall back to [DefaultBackoff].
func (b BridgeConfig) Backoff() time.Duration {
	return seconds(b.BackoffSeconds, DefaultBackoff)
}

// RequestTimeout returns the per-request HTTP timeout.
func (b BridgeConfig) RequestTimeout() time.Duration {
	return seconds(b.RequestTimeoutSeconds, DefaultRequestTimeout)
}

// AuthTimeout returns how long to wait for the server to accept a credential.
func (b BridgeConfig) AuthTimeout() time.Duration {
	return seconds(b.AuthTimeoutSeconds, DefaultAuthTimeout)
}

// EventName returns the progress event to subscribe to.
func (b BridgeConfig) EventName() string {
	if b.Event == "" {
		return DefaultEvent
	}
	return b.Event
}

// Address returns the host:port the health server listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
