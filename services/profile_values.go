package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Profile maps canonical keys to the user's stored answers. The engine only
// reads it.
type Profile map[string]any

const (
	keyFirstName  = "firstName"
	keyMiddleName = "middleName"
	keyLastName   = "lastName"
	keyFullName   = "fullName"
)

// Value returns the display string for key, deriving name parts from a
// combined full name (and the full name from its parts) when needed.
func (p Profile) Value(key string) (string, bool) {
	if value, ok := formatValue(p[key]); ok {
		return value, true
	}

	switch key {
	case keyFirstName, keyMiddleName, keyLastName:
		full, ok := formatValue(p[keyFullName])
		if !ok {
			return "", false
		}
		first, middle, last := splitFullName(full)
		part := map[string]string{keyFirstName: first, keyMiddleName: middle, keyLastName: last}[key]
		return part, part != ""
	case keyFullName:
		var parts []string
		for _, k := range []string{keyFirstName, keyMiddleName, keyLastName} {
			if v, ok := formatValue(p[k]); ok {
				parts = append(parts, v)
			}
		}
		full := strings.Join(parts, " ")
		return full, full != ""
	}

	return "", false
}

// Values returns every answer for key; list values yield one entry per item
// and scalar strings are split on commas (multi-select checkboxes).
func (p Profile) Values(key string) []string {
	switch raw := p[key].(type) {
	case []string:
		return compactStrings(raw)
	case []any:
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			if v, ok := formatValue(item); ok {
				values = append(values, v)
			}
		}
		return values
	}

	value, ok := p.Value(key)
	if !ok {
		return nil
	}
	return compactStrings(strings.Split(value, ","))
}

func formatValue(raw any) (string, bool) {
	var value string
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		value = v
	case json.Number:
		value = v.String()
	case float64:
		value = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		value = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		value = strconv.Itoa(v)
	case int64:
		value = strconv.FormatInt(v, 10)
	case bool:
		value = "No"
		if v {
			value = "Yes"
		}
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		value = v.Format(isoLayout)
	case []string:
		value = strings.Join(compactStrings(v), ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := formatValue(item); ok {
				parts = append(parts, s)
			}
		}
		value = strings.Join(parts, ", ")
	default:
		value = fmt.Sprint(v)
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}

func splitFullName(full string) (first, middle, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	}
	return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
}

func compactStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
