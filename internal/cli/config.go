package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/rmrender/pkg/pipeline"
)

// Config is the optional TOML configuration file. Flags override it.
//
//	template_dir   = "/usr/share/remarkable/templates"
//	template_alpha = 0.6
//	workers        = 4
//	formats        = ["svg", "pdf"]
//	cache_ttl      = "720h"
//	redis_url      = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
type Config struct {
	TemplateDir   string        `toml:"template_dir,omitempty"`
	TemplateAlpha *float64      `toml:"template_alpha,omitempty"`
	Workers       int           `toml:"workers,omitempty"`
	Formats       []string      `toml:"formats,omitempty"`
	CacheTTL      time.Duration `toml:"cache_ttl,omitempty"`
	RedisURL      string        `toml:"redis_url,omitempty"`
	Server        ServerConfig  `toml:"server"`

	path string
}

// ServerConfig holds the [server] table.
type ServerConfig struct {
	Addr         string `toml:"addr,omitempty"`
	MaxBodyBytes int64  `toml:"max_body_bytes,omitempty"`
}

// configPath returns the default config file location.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads the config file. An explicit path must exist; the default
// path is optional.
func loadConfig(explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		p, err := configPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	cfg := &Config{path: path}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if explicit == "" && errors.Is(err, fs.ErrNotExist) {
			return &Config{path: path}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := pipeline.ValidateFormats(cfg.Formats); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was read from, or would be.
func (c *Config) Path() string { return c.path }

// pipelineOptions returns the pipeline defaults this config sets.
func (c *Config) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		TemplateDir: c.TemplateDir,
		Workers:     c.Workers,
		Formats:     append([]string(nil), c.Formats...),
	}
	if c.TemplateAlpha != nil {
		opts.TemplateAlpha = *c.TemplateAlpha
		opts.HideTemplate = *c.TemplateAlpha == 0
	}
	return opts
}

// addr returns the configured server address.
func (c *Config) addr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return defaultAddr
}
