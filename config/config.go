// Package config loads client settings from a YAML file. The session
// token deliberately never lives here; it comes from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the client configuration.
type Config struct {
	ServerURL    string `yaml:"server_url"`
	WebsocketURL string `yaml:"websocket_url,omitempty"`
	Locale       string `yaml:"locale,omitempty"`

	// Retention window for the DM/GM auto-close heuristic.
	AutoCloseAfterDays int `yaml:"auto_close_after_days,omitempty"`

	CachePath string `yaml:"cache_path,omitempty"`

	ReconnectMinSeconds int `yaml:"reconnect_min_seconds,omitempty"`
	ReconnectMaxSeconds int `yaml:"reconnect_max_seconds,omitempty"`
}

// Load reads the config file and fills defaults.
func Load(path string) (Config, error) {
	var c Config

	f, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(f, &c); err != nil {
		return c, errors.Wrap(err, "parsing config")
	}
	if c.ServerURL == "" {
		return c, errors.New("server_url is required")
	}

	return withDefaults(c), nil
}

func withDefaults(c Config) Config {
	if c.WebsocketURL == "" {
		ws := c.ServerURL
		ws = strings.Replace(ws, "https://", "wss://", 1)
		ws = strings.Replace(ws, "http://", "ws://", 1)
		c.WebsocketURL = ws + "/api/v4/websocket"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.AutoCloseAfterDays == 0 {
		c.AutoCloseAfterDays = 7
	}
	if c.CachePath == "" {
		c.CachePath = "skiff-cache.db"
	}
	if c.ReconnectMinSeconds == 0 {
		c.ReconnectMinSeconds = 1
	}
	if c.ReconnectMaxSeconds == 0 {
		c.ReconnectMaxSeconds = 60
	}
	return c
}

// AutoCloseAfter converts the configured retention window to a duration.
func (c Config) AutoCloseAfter() time.Duration {
	return time.Duration(c.AutoCloseAfterDays) * 24 * time.Hour
}
