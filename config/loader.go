package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/appfabrichq/appfabric/infra/resolve"
)

// LoadStackConfig reads the operator's stack configuration from a YAML or
// TOML file, selected by extension. The returned tree is raw: resolution and
// validation happen in the resolve package.
func LoadStackConfig(path string) (*resolve.RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack config %s: %w", path, err)
	}

	var raw resolve.RawConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing stack config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing stack config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("stack config %s: unsupported extension (want .yaml, .yml, or .toml)", path)
	}

	return &raw, nil
}

// LoadSecretLookup reads a YAML map of secret identifiers to ARNs. A missing
// file is not an error: the stack may legitimately use no secrets.
func LoadSecretLookup(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading secret lookup %s: %w", path, err)
	}

	var lookup map[string]string
	if err := yaml.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("parsing secret lookup %s: %w", path, err)
	}
	return lookup, nil
}
