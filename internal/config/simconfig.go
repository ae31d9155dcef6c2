package config

import (
	"encoding/json"
	"fmt"
	"os"

	"emodccdl/internal/logging"
)

// simConfig is the slice of a simulation config the decoder cares about.
type simConfig struct {
	Parameters *struct {
		EventMap map[string]string `json:"Event_Map"`
	} `json:"parameters"`
}

// LoadEventMap reads the trigger alias table from a simulation config's
// parameters.Event_Map. A config without Event_Map yields an empty table.
func LoadEventMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sim config: %w", err)
	}

	var sc simConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse sim config %s: %w", path, err)
	}
	if sc.Parameters == nil {
		return nil, fmt.Errorf("sim config %s has no parameters", path)
	}

	aliases := sc.Parameters.EventMap
	if aliases == nil {
		aliases = map[string]string{}
	}
	logging.Get(logging.CategoryConfig).Debug("loaded %d event aliases from %s", len(aliases), path)
	return aliases, nil
}
