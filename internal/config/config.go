package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"assigngen/internal/invocation"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = ".assigngen.yaml"

// Config represents the optional assigngen configuration file.
type Config struct {
	// Marker overrides how the directive call is spelled.
	Marker MarkerConfig `yaml:"marker,omitempty"`

	// Tags are build tags enabled while loading packages. Invocation files
	// conventionally carry the "assign" tag so the rest of the module keeps
	// building before expansion.
	Tags []string `yaml:"tags,omitempty"`

	// Write makes in-place rewriting the default output mode, as if -w were
	// always given.
	Write bool `yaml:"write,omitempty"`

	// Exclude lists glob patterns (path.Match syntax, matched against file
	// base names) for files that are never rewritten.
	Exclude []string `yaml:"exclude,omitempty"`
}

// MarkerConfig identifies the directive call. Zero fields fall back to the
// bundled assign package.
type MarkerConfig struct {
	// Package is the import path of the marker package.
	Package string `yaml:"package,omitempty"`
	// Function is the directive function name.
	Function string `yaml:"function,omitempty"`
	// Fields is the clause-carrier type name.
	Fields string `yaml:"fields,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Tags: []string{"assign"},
	}
}

// Load reads and parses a configuration file. An empty path loads
// DefaultFileName when it exists and the defaults otherwise; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}

		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	m := c.Marker

	// Partial overrides are ambiguous: either spell the whole marker or
	// none of it.
	set := 0
	for _, v := range []string{m.Package, m.Function, m.Fields} {
		if v != "" {
			set++
		}
	}

	if set != 0 && set != 3 {
		return fmt.Errorf("marker must set package, function and fields together")
	}

	for _, pattern := range c.Exclude {
		if _, err := path.Match(pattern, "x"); err != nil {
			return fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// Excluded reports whether a file is excluded from rewriting. Patterns match
// the file's base name.
func (c *Config) Excluded(file string) bool {
	base := path.Base(filepath.ToSlash(file))

	for _, pattern := range c.Exclude {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}

	return false
}

// InvocationMarker resolves the configured marker, falling back to the
// bundled assign package.
func (c *Config) InvocationMarker() invocation.Marker {
	if c.Marker.Package == "" {
		return invocation.DefaultMarker()
	}

	return invocation.Marker{
		PkgPath: c.Marker.Package,
		Func:    c.Marker.Function,
		Fields:  c.Marker.Fields,
	}
}
