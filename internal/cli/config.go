package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds user defaults loaded from the config file. Flags always win
// over config values; config values win over built-in defaults.
type Config struct {
	Render RenderConfig `toml:"render"`
	Serve  ServeConfig  `toml:"serve"`
}

// RenderConfig carries defaults for the render command.
type RenderConfig struct {
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	FPS      int    `toml:"fps"`
	Workers  int    `toml:"workers"`
	FFmpeg   string `toml:"ffmpeg"`
	NoJSONUI bool   `toml:"plain_progress"`
}

// ServeConfig carries defaults for the serve command.
type ServeConfig struct {
	Addr      string `toml:"addr"`
	RedisAddr string `toml:"redis_addr"`
}

// LoadConfig reads the config file, returning zero-valued defaults when the
// file is absent or unreadable. A malformed file is ignored rather than
// fatal; commands still run with flag and built-in defaults.
func LoadConfig() *Config {
	cfg := &Config{}
	path, err := configPath()
	if err != nil {
		return cfg
	}
	if _, err := os.Stat(path); err != nil {
		return cfg
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return &Config{}
	}
	return cfg
}

// configPath returns the config file location using XDG standard
// (~/.config/commitreel/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
