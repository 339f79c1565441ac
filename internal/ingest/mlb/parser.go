package mlb

import (
	"strconv"
	"strings"
)

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

func extractBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// extractFloatPtr returns nil when the key is absent or not numeric.
func extractFloatPtr(m map[string]interface{}, key string) *float64 {
	switch val := m[key].(type) {
	case float64:
		return &val
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return &f
		}
	}
	return nil
}

func extractIntPtr(m map[string]interface{}, key string) *int {
	if f, ok := m[key].(float64); ok {
		i := int(f)
		return &i
	}
	return nil
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

// asMaps keeps only the object elements of a JSON array.
func asMaps(items []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(val))
		return i
	case int:
		return val
	default:
		return 0
	}
}

// SampleGames spreads at most limit games across the list: when there are
// more than limit, every (n/limit)-th game is kept and the result truncated.
func SampleGames(pks []int, limit int) []int {
	if limit <= 0 || len(pks) <= limit {
		return pks
	}
	step := len(pks) / limit
	out := make([]int, 0, limit)
	for i := 0; i < len(pks) && len(out) < limit; i += step {
		out = append(out, pks[i])
	}
	return out
}
