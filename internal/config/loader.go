package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Rules file names searched by FindConfigFile.
const (
	// DefaultConfigFile is the default rules file name (YAML).
	DefaultConfigFile = ".mdlinkcheck"

	// DefaultTOMLConfigFile is the TOML variant of the rules file.
	DefaultTOMLConfigFile = ".mdlinkcheck.toml"
)

// ErrConfigNotFound is returned when the rules file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a rules file. Files ending in ".toml" are decoded as
// TOML, everything else as YAML. Unknown keys are an error in both formats.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.Decode(string(data), &cf)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
		return &cf, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the rules file in the following order:
// 1. If configPath is specified, use it directly
// 2. .mdlinkcheck, then .mdlinkcheck.toml in the current directory
// 3. config.yaml, then config.toml in the XDG config directory
// 4. .mdlinkcheck, then .mdlinkcheck.toml in the user's home directory
//
// Returns the path to the rules file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, DefaultConfigFile),
			filepath.Join(cwd, DefaultTOMLConfigFile),
		)
	}
	candidates = append(candidates,
		filepath.Join(XDGConfigDir(), "config.yaml"),
		filepath.Join(XDGConfigDir(), "config.toml"),
	)
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, DefaultConfigFile),
			filepath.Join(home, DefaultTOMLConfigFile),
		)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
