package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved logdeck configuration.
type Config struct {
	APIURL          string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	CatalogInterval time.Duration
	// Servers is shown when the service cannot list its servers.
	Servers []string
	LogFile string
}

const (
	defaultConfigPath     = "~/.config/logdeck/config.toml"
	defaultLogFile        = "~/.local/state/logdeck/logdeck.log"
	defaultAPIURL         = "http://127.0.0.1:8080"
	defaultPollSeconds    = 2
	defaultTimeoutSeconds = 5
	defaultCatalogSeconds = 30
	envPrefix             = "LOGDECK_"
)

// fileConfig mirrors config.toml. The same struct receives LOGDECK_*
// environment overrides; variables that are unset leave the file value alone.
type fileConfig struct {
	APIURL                string   `toml:"api_url" env:"API_URL"`
	PollSeconds           int      `toml:"poll_seconds" env:"POLL_SECONDS"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	CatalogSeconds        int      `toml:"catalog_seconds" env:"CATALOG_SECONDS"`
	Servers               []string `toml:"servers" env:"SERVERS" envSeparator:","`
	LogFile               string   `toml:"log_file" env:"LOG_FILE"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file at path (the default location when empty),
// applies environment overrides, and fills defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	bytes, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if bytes != nil {
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&raw, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	return raw.resolve(), nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return bytes, nil
}

func (raw fileConfig) resolve() Config {
	cfg := Config{
		APIURL:          strings.TrimSpace(raw.APIURL),
		PollInterval:    seconds(raw.PollSeconds, defaultPollSeconds),
		RequestTimeout:  seconds(raw.RequestTimeoutSeconds, defaultTimeoutSeconds),
		CatalogInterval: seconds(raw.CatalogSeconds, defaultCatalogSeconds),
		LogFile:         strings.TrimSpace(raw.LogFile),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)

	seen := make(map[string]bool, len(raw.Servers))
	for _, s := range raw.Servers {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		cfg.Servers = append(cfg.Servers, s)
	}
	return cfg
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
