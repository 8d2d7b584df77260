package dsl

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// isPlaceholder reports whether s is exactly "${name}" (or "${dotted.path}")
// and returns the inner name/path.
func isPlaceholder(s string) (string, bool) {
	if len(s) < 3 || !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	return s[2 : len(s)-1], true
}

// ResolvePlaceholders replaces every parameter value that is exactly
// "${name}" with the named variable's current value, per spec.md §9:
// "the entire value, if a string matching exactly ${name}, is swapped for
// the typed variable value. Do not attempt template interpolation inside
// larger strings." A placeholder naming a variable that doesn't exist is
// left untouched, matching the original implementation's behavior of
// resolving what it can and leaving the rest literal rather than erroring.
//
// As a supplemental feature, a dotted or indexed inner path
// ("${name.field}", "${name.items.0}") that doesn't match a variable name
// exactly is resolved against the JSON form of the variable set via gjson,
// so a Function parameter can reach into a structured variable without a
// separate Assign step.
func ResolvePlaceholders(params map[string]interface{}, vars map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return params
	}

	resolved := make(map[string]interface{}, len(params))
	var varsJSON []byte

	for k, v := range params {
		s, ok := v.(string)
		if !ok {
			resolved[k] = v
			continue
		}
		name, ok := isPlaceholder(s)
		if !ok {
			resolved[k] = v
			continue
		}
		if val, ok := vars[name]; ok {
			resolved[k] = val
			continue
		}
		if strings.ContainsAny(name, ".[") {
			if varsJSON == nil {
				varsJSON, _ = json.Marshal(vars)
			}
			if result := gjson.GetBytes(varsJSON, name); result.Exists() {
				resolved[k] = result.Value()
				continue
			}
		}
		// Unresolved: leave the literal placeholder string in place.
		resolved[k] = v
	}

	return resolved
}
