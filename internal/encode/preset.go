package encode

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Presets is the per-call table of named literals declared by preset lines.
type Presets map[string]any

// parsePresetLiteral reads a preset literal as YAML. Python-style dict and
// list literals parse as flow collections.
func parsePresetLiteral(literal string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(literal), &v); err != nil {
		return nil, fmt.Errorf("preset literal %q: %w", literal, err)
	}
	return v, nil
}
