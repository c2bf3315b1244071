package thresholds

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML table over Default. Keys that are absent keep their default.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read threshold file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML table over Default and validates the result.
func ParseYAML(data []byte) (Set, error) {
	set := Default()
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse threshold yaml: %w", err)
	}
	if err := set.Validate(); err != nil {
		return Set{}, fmt.Errorf("invalid threshold table: %w", err)
	}
	return set, nil
}

// ParseJSON decodes a stored per-patient profile over base and validates the result.
func ParseJSON(base Set, data []byte) (Set, error) {
	set := base
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse threshold profile: %w", err)
	}
	if err := set.Validate(); err != nil {
		return Set{}, fmt.Errorf("invalid threshold profile: %w", err)
	}
	return set, nil
}
