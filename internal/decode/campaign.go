// Package decode turns a structured campaign into CCDL lines.
package decode

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Campaign is a decoded campaign file. Events are kept as generic JSON trees
// with numbers preserved as json.Number.
type Campaign struct {
	Events []any `json:"Events"`
}

// Load reads a campaign from r.
func Load(r io.Reader) (*Campaign, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var c Campaign
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse campaign: %w", err)
	}
	return &c, nil
}

// LoadFile reads a campaign from path.
func LoadFile(path string) (*Campaign, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open campaign: %w", err)
	}
	defer f.Close()
	return Load(f)
}
