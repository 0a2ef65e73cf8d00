package agent

import (
	"encoding/json"
	"strings"
)

// extractJSON strips markdown code fences that models occasionally wrap
// around their output despite instructions, and trims surrounding
// whitespace. The canonical contract forbids fences; this is tolerance for
// near-miss outputs only.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// decodeStrict unmarshals data into v, rejecting JSON fields that do not
// map to the target shape. Unknown fields mean the model invented structure
// outside the contract, which the corrective re-ask should fix.
func decodeStrict(data string, v any) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
