// Package config resolves engine settings from, in rising precedence:
// built-in defaults, a YAML config file, environment variables, and CLI
// flags. Each resolved value remembers where it came from.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xxxserbagd-cmyk/germasik/internal/store"
)

// ValueSource names where a resolved value came from.
type ValueSource string

const (
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// ResolvedValue is a setting plus its provenance.
type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// ResolveOptions carries CLI-level overrides into resolution.
type ResolveOptions struct {
	ConfigPath      string
	CLIStorePath    string
	CLIStoreBackend string
}

// ResolvedConfig is the full resolved configuration.
type ResolvedConfig struct {
	ConfigPath string `json:"config_path,omitempty"`

	StorePath    ResolvedValue `json:"store_path"`
	StoreBackend ResolvedValue `json:"store_backend"`
	AccessPath   ResolvedValue `json:"access_path"`

	// Keywords holds extra extractor keyword sets by field name, merged on
	// top of the built-in rule table.
	Keywords map[string][]string `json:"keywords,omitempty"`
}

type fileConfig struct {
	Store struct {
		Path    string `yaml:"path"`
		Backend string `yaml:"backend"`
	} `yaml:"store"`
	AccessPath string              `yaml:"access_path"`
	Keywords   map[string][]string `yaml:"keywords"`
}

// DefaultConfigPath is where Resolve looks when no path is given.
const DefaultConfigPath = "germasik.yaml"

// DefaultAccessPath is the default access-control file.
const DefaultAccessPath = "access_config.json"

// Resolve builds the effective configuration. A missing config file is not
// an error; a malformed one is.
func Resolve(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		if env := strings.TrimSpace(os.Getenv("GERMASIK_CONFIG")); env != "" {
			path = env
		} else {
			path = DefaultConfigPath
		}
	}

	out := ResolvedConfig{
		StorePath:    ResolvedValue{Value: store.DefaultPath, Source: SourceDefault},
		StoreBackend: ResolvedValue{Value: store.BackendFile, Source: SourceDefault},
		AccessPath:   ResolvedValue{Value: DefaultAccessPath, Source: SourceDefault},
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		out.ConfigPath = path
		apply(&out.StorePath, cfg.Store.Path, SourceConfig, path)
		apply(&out.StoreBackend, cfg.Store.Backend, SourceConfig, path)
		apply(&out.AccessPath, cfg.AccessPath, SourceConfig, path)
		out.Keywords = cfg.Keywords
	}

	applyEnv(&out.StorePath, "GERMASIK_STORE_PATH")
	applyEnv(&out.StoreBackend, "GERMASIK_STORE_BACKEND")
	applyEnv(&out.AccessPath, "GERMASIK_ACCESS_PATH")

	apply(&out.StorePath, opts.CLIStorePath, SourceCLI, "--store")
	apply(&out.StoreBackend, opts.CLIStoreBackend, SourceCLI, "--backend")

	switch out.StoreBackend.Value {
	case store.BackendFile, store.BackendSQLite:
	default:
		return out, fmt.Errorf("unknown store backend %q (from %s)",
			out.StoreBackend.Value, out.StoreBackend.Source)
	}

	return out, nil
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func apply(dst *ResolvedValue, value string, source ValueSource, from string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = ResolvedValue{Value: value, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, env string) {
	apply(dst, os.Getenv(env), SourceEnv, env)
}
