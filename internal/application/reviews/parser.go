package reviews

import (
	"encoding/json"
	"fmt"
	"strings"

	domai "github.com/yudhapratama/code-review-api/internal/domain/ai"
)

// reviewPayload mirrors the JSON document the model is instructed to return.
// Pointer fields distinguish a key that is absent from one that is present but
// empty; absence triggers the fallbacks applied by the service.
type reviewPayload struct {
	Filename      *string           `json:"filename"`
	Summary       *string           `json:"summary"`
	Suggestions   map[string]string `json:"suggestions"`
	PotentialBugs map[string]string `json:"potential_bugs"`
}

// extractJSON cuts the widest brace-delimited span out of raw: the first '{'
// through the last '}'. Models wrap the document in prose or markdown fences
// and the greedy cut tolerates both. A reply holding two separate objects
// yields one invalid span on purpose, so it surfaces as malformed instead of
// silently picking either object.
func extractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// parseReview extracts and decodes the model reply. Every shape problem maps
// to ErrMalformedResponse so callers report a single upstream failure class.
func parseReview(raw string) (reviewPayload, error) {
	span, ok := extractJSON(raw)
	if !ok {
		return reviewPayload{}, fmt.Errorf("%w: no JSON object in reply", domai.ErrMalformedResponse)
	}
	var payload reviewPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return reviewPayload{}, fmt.Errorf("%w: %v", domai.ErrMalformedResponse, err)
	}
	return payload, nil
}
