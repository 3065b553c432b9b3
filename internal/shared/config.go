package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvClientID      = "SPOTIFY_CLIENT_ID"
	EnvClientSecret  = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI   = "SPOTIFY_REDIRECT_URI"
	EnvProxyUsername = "PROXY_USERNAME"
	EnvProxyPassword = "PROXY_PASSWORD"
	EnvPassphrase    = "SPOOL_PASSPHRASE"
)

// Config represents the application configuration loaded from a TOML file.
//
// It is built once at startup and handed to every component constructor.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Store    StoreConfig    `toml:"store"`
	Playlist PlaylistConfig `toml:"playlist"`
	App      AppConfig      `toml:"app"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// SpotifyConfig contains Spotify application credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	APIBaseURL   string `toml:"api_base_url"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
}

// ProxyConfig points at the proxy list and holds the optional basic-auth pair shared by every proxy.
type ProxyConfig struct {
	File     string `toml:"file"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// StoreConfig locates the encrypted credential store, its key file and the per-account token caches.
type StoreConfig struct {
	AccountsFile  string `toml:"accounts_file"`
	KeyFile       string `toml:"key_file"`
	TokenCacheDir string `toml:"token_cache_dir"`
	Passphrase    string `toml:"passphrase"`
}

// PlaylistConfig holds defaults used when a playlist is created without a name or description.
type PlaylistConfig struct {
	DefaultName        string `toml:"default_name"`
	DefaultDescription string `toml:"default_description"`
}

// AppConfig contains runtime limits.
type AppConfig struct {
	MaxConcurrentAccounts int     `toml:"max_concurrent_accounts"` // advisory
	RequestTimeout        int     `toml:"request_timeout"`         // seconds
	RateLimit             float64 `toml:"rate_limit"`              // batch requests per second
	Workers               int     `toml:"workers"`
	LogFile               string  `toml:"log_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Timeout returns the request timeout as a [time.Duration].
func (a AppConfig) Timeout() time.Duration {
	if a.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.RequestTimeout) * time.Second
}

// Validate reports whether the application credentials needed to talk to Spotify are present.
func (s SpotifyConfig) Validate() error {
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if s.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// LoadDotEnv loads KEY=VALUE pairs from the .env file at path into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config. A nil lookup uses [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for name, field := range map[string]*string{
		EnvClientID:      &c.Spotify.ClientID,
		EnvClientSecret:  &c.Spotify.ClientSecret,
		EnvRedirectURI:   &c.Spotify.RedirectURI,
		EnvProxyUsername: &c.Proxy.Username,
		EnvProxyPassword: &c.Proxy.Password,
		EnvPassphrase:    &c.Store.Passphrase,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*field = v
		}
	}
}

// SaveConfig writes the config to path as TOML.
//
// The passphrase is never written back to disk.
func SaveConfig(path string, config *Config) error {
	out := *config
	out.Store.Passphrase = ""

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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
