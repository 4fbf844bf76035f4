package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/inamate/infomap/internal/document"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	ProjectsRoot   string `envconfig:"PROJECTS_ROOT" default:"./data/projects"`
	ExportDir      string `envconfig:"EXPORT_DIR" default:"./data/exports"`
	DefaultsFile   string `envconfig:"DEFAULTS_FILE"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	WatchProjects  bool   `envconfig:"WATCH_PROJECTS" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadDefaults returns the built-in style defaults overridden by the TOML
// file at path. An empty path gives the built-ins.
func LoadDefaults(path string) (document.Defaults, error) {
	d := document.BuiltinDefaults()
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read defaults %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &d); err != nil {
		return document.BuiltinDefaults(), fmt.Errorf("parse defaults %s: %w", path, err)
	}
	return d, nil
}
