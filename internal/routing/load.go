package routing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadRules reads a routing table from path. The format is chosen by
// extension: .yaml/.yml or .toml.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading routing rules: %w", err)
	}
	return ParseRules(data, filepath.Ext(path))
}

// ParseRules decodes and validates a routing table in the format named by ext.
func ParseRules(data []byte, ext string) (*Rules, error) {
	var rules Rules
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing routing rules (yaml): %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("parsing routing rules (toml): %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported routing rules format %q (use .yaml, .yml or .toml)", ext)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing rules: %w", err)
	}
	return &rules, nil
}

// MarshalYAML renders rules in the YAML file format accepted by LoadRules.
func MarshalYAML(rules *Rules) ([]byte, error) {
	return yaml.Marshal(rules)
}
