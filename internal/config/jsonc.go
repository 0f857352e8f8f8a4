package config

import (
	"encoding/json"

	"github.com/tidwall/jsonc"
)

// JSONC is a koanf parser for JSON manifests that may carry comments and
// trailing commas.
type JSONC struct{}

// JSONCParser returns a JSONC parser.
func JSONCParser() *JSONC {
	return &JSONC{}
}

// Unmarshal parses JSONC bytes into a nested map.
func (p *JSONC) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal renders a nested map as plain JSON.
func (p *JSONC) Marshal(o map[string]interface{}) ([]byte, error) {
	return json.Marshal(o)
}
