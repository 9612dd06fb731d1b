package repliers

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Repliers status codes: A is active, U is unavailable (pending, under contract, sold).
var statusCodes = map[string]string{
	"a":              "A",
	"active":         "A",
	"u":              "U",
	"pending":        "U",
	"under contract": "U",
}

// NormalizeStatus maps site status labels onto Repliers codes and drops anything it does not know.
func NormalizeStatus(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			code, ok := statusCodes[strings.ToLower(strings.TrimSpace(part))]
			if !ok {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

// RewriteParams returns a copy of params with status normalized. When no status value
// survives the parameter is removed entirely. Empty values are dropped as well.
func RewriteParams(params url.Values) url.Values {
	out := url.Values{}
	for key, vals := range params {
		kept := make([]string, 0, len(vals))
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[key] = kept
		}
	}
	if vals, ok := out["status"]; ok {
		if norm := NormalizeStatus(vals); len(norm) > 0 {
			out["status"] = norm
		} else {
			delete(out, "status")
		}
	}
	return out
}

// ParamsFromMap flattens a JSON parameter bag into query values. Arrays become repeated keys.
func ParamsFromMap(m map[string]any) url.Values {
	out := url.Values{}
	for key, v := range m {
		switch val := v.(type) {
		case nil:
		case []any:
			for _, item := range val {
				if s := scalarString(item); s != "" {
					out.Add(key, s)
				}
			}
		default:
			if s := scalarString(val); s != "" {
				out.Set(key, s)
			}
		}
	}
	return out
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
