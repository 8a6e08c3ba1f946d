package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/client"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the optional config file inside the state directory.
const FileName = "config.yaml"

// Config holds the CLI settings read from the config file.
// Flags and environment variables take precedence over the file.
type Config struct {
	Server     string        `yaml:"server"`
	SessionDir string        `yaml:"sessionDir"`
	Timeout    time.Duration `yaml:"timeout"`
	HTTPCache  bool          `yaml:"httpCache"`
	CacheDir   string        `yaml:"cacheDir"`
	MaxTries   uint          `yaml:"maxTries"`
}

// Default returns the built in settings.
func Default() Config {
	d := client.DefaultConfig()
	return Config{
		Server:   d.ServerURL,
		MaxTries: d.MaxTries,
	}
}

// DefaultStateDir returns ~/.stockroom
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".stockroom"), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", path).Msg("no config file, using defaults")
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("config loaded")

	return cfg, cfg.Validate()
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server URL is required")
	}

	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https, got %q", c.Server)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}

// ClientConfig converts the settings into API client configuration.
func (c Config) ClientConfig(debug bool) client.Config {
	return client.Config{
		ServerURL: c.Server,
		Timeout:   c.Timeout,
		Debug:     debug,
		HTTPCache: c.HTTPCache,
		CacheDir:  c.CacheDir,
		MaxTries:  c.MaxTries,
	}
}
