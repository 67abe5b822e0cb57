package tags

import (
	"encoding/json"
	"strings"
)

// Parse decodes a reserved attachment body: a JSON array of "key:value"
// strings. Malformed entries are skipped rather than failing the refresh;
// a body that is not a JSON array at all yields no tags. Values may contain
// colons, so only the first colon splits.
func Parse(body string) []Tag {
	var entries []string
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil
	}

	var parsed []Tag
	seen := map[Tag]struct{}{}

	for _, entry := range entries {
		key, value, found := strings.Cut(entry, ":")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(key) == 0 || len(value) == 0 {
			continue
		}

		tag := Tag{Key: key, Value: value}
		if _, exists := seen[tag]; exists {
			continue
		}

		seen[tag] = struct{}{}
		parsed = append(parsed, tag)
	}

	return parsed
}
