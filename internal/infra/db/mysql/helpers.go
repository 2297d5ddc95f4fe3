package mysql

import (
	"encoding/json"
	"strings"
)

// encodeSection serializes a report section for its TEXT column. A nil map
// persists as {} so the column always holds a valid JSON mapping.
func encodeSection(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// decodeSection restores a section column. Blank or null text comes back as
// an empty map so callers always receive a usable mapping.
func decodeSection(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
