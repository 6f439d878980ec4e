package settings

import (
	"encoding/json"
	"strings"
)

// LoadedPayload encodes a seed flag as {"value": <loaded>}.
func LoadedPayload(loaded bool) json.RawMessage {
	payload, _ := json.Marshal(map[string]bool{LoadedField: loaded})
	return json.RawMessage(payload)
}

// ParseLoaded extracts the seed flag from a setting payload.
// Empty, malformed, or non-boolean payloads report false.
func ParseLoaded(payload []byte) bool {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || trimmed == "null" {
		return false
	}
	var fields map[string]json.RawMessage
	if errUnmarshal := json.Unmarshal([]byte(trimmed), &fields); errUnmarshal != nil {
		return false
	}
	raw, ok := fields[LoadedField]
	if !ok {
		return false
	}
	var loaded bool
	if errUnmarshal := json.Unmarshal(raw, &loaded); errUnmarshal != nil {
		return false
	}
	return loaded
}
