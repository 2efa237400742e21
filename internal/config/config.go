// Package config loads the optional msgir.toml project file.
//
// Every key has a default, so a missing file is the same as an empty one.
// Explicit CLI flags override file values; that merge happens in the cli
// package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/roach88/msgir/internal/ir"
)

// FileName is the project file looked up by Find.
const FileName = "msgir.toml"

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "yaml"}

// Config is the decoded msgir.toml.
type Config struct {
	Output OutputConfig `toml:"output"`
	Schema SchemaConfig `toml:"schema"`
	Passes PassesConfig `toml:"passes"`
	Store  StoreConfig  `toml:"store"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type OutputConfig struct {
	Format string `toml:"format"`
}

type SchemaConfig struct {
	// ByteOrder applies to schemas that declare none.
	ByteOrder string `toml:"byte_order"`
}

type PassesConfig struct {
	DefaultNulls bool `toml:"default_nulls"`
}

type StoreConfig struct {
	// Path of the SQLite store. Empty disables persistence.
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Output: OutputConfig{Format: "text"},
		Schema: SchemaConfig{ByteOrder: "littleEndian"},
		Passes: PassesConfig{DefaultNulls: true},
	}
}

// Load reads path over the defaults. Keys the file sets replace the
// default; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Find walks from startDir up to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolve loads the explicit path if given, otherwise the nearest
// msgir.toml above startDir, otherwise the defaults.
func Resolve(explicit, startDir string) (Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("[output].format must be one of %s, got %q", strings.Join(Formats, ", "), c.Output.Format)
	}
	if _, err := ir.LookupByteOrder(c.Schema.ByteOrder); err != nil {
		return fmt.Errorf("[schema].byte_order: %w", err)
	}
	return nil
}

// ByteOrder returns the configured default byte order.
func (c Config) ByteOrder() ir.ByteOrder {
	bo, err := ir.LookupByteOrder(c.Schema.ByteOrder)
	if err != nil {
		return ir.LittleEndian
	}
	return bo
}
