package internal

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

func getValueAtPath(m map[string]any, path string) any {
	if m == nil || path == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	current := any(m)
	for _, segment := range segments {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		next, exists := asMap[segment]
		if !exists {
			return nil
		}
		current = next
	}
	return current
}

func setNestedValue(m map[string]any, path string, value any) {
	if m == nil || path == "" {
		return
	}
	segments := strings.Split(path, ".")
	current := m
	for idx, segment := range segments {
		if idx == len(segments)-1 {
			current[segment] = value
			return
		}
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
}

func readStringAtPath(m map[string]any, path string) (string, bool) {
	val := getValueAtPath(m, path)
	if val == nil {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", val), true
}

// copyMapDeep creates a deep copy of a map.
func copyMapDeep(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, value := range m {
		result[key] = deepCopyValue(value)
	}
	return result
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return copyMapDeep(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = deepCopyValue(item)
		}
		return result
	default:
		return value
	}
}

// isPopulated reports whether a field value counts as set: non-nil, non-empty
// string, non-empty slice.
func isPopulated(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	}
	return true
}

// toStringSlice extracts identity strings from an array field value.
func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				ids = append(ids, s)
			}
		}
		return ids
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// charBoundPattern matches authored length bounds such as "(30 chars)".
var charBoundPattern = regexp.MustCompile(`(?i)\((\d+)\s*chars?\)`)

// charBound extracts a character bound from a type hint, if declared.
func charBound(hint string) (int, bool) {
	match := charBoundPattern.FindStringSubmatch(hint)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

// stringFields renders the non-internal string fields of a record as sorted
// "key: value" lines, optionally prefixed by a path.
func stringFields(data map[string]any, prefix string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		if strings.HasPrefix(key, "$") {
			continue
		}
		if s, ok := data[key].(string); ok && s != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, data[key].(string)))
	}
	return lines
}
