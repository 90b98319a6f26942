// Package config loads the interpreter's optional YAML configuration:
// REPL prompt, files to preload after the prelude, and GC tracing.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Prompt  string   `yaml:"prompt"`
	Preload []string `yaml:"preload"`
	GCTrace bool     `yaml:"gc_trace"`
}

func Default() Config {
	return Config{Prompt: "knot> "}
}

// Load reads and parses one config file. Fields absent from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Prompt == "" {
		cfg.Prompt = Default().Prompt
	}
	return cfg, nil
}

// LoadDefault probes the usual locations in order — $KNOT_CONFIG, then
// ./knot.yaml, then ~/.config/knot/knot.yaml — returning the first that
// exists and parses; a file that fails to parse is skipped. It falls back
// to the built-in defaults when no location yields a config.
func LoadDefault() Config {
	var paths []string
	if env := os.Getenv("KNOT_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	paths = append(paths, "knot.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "knot", "knot.yaml"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if cfg, err := Load(p); err == nil {
			return cfg
		}
	}
	return Default()
}
