package models

import (
	"fmt"
	"regexp"
	"strconv"
)

var nonPhoneChars = regexp.MustCompile(`[^0-9+]`)

// NormalizePhone drops every character other than ASCII digits and '+'.
func NormalizePhone(raw string) string {
	return nonPhoneChars.ReplaceAllString(raw, "")
}

// Payload is a decoded webhook body. Adapters only read from it.
type Payload map[string]interface{}

// Field returns the raw value stored under name.
func (p Payload) Field(name string) (interface{}, bool) {
	if p == nil {
		return nil, false
	}
	value, ok := p[name]
	return value, ok
}

// AsMap reports whether value is a JSON object and returns it.
func AsMap(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case Payload:
		return v, true
	default:
		return nil, false
	}
}

// Stringify renders a decoded JSON scalar without exponent notation, so
// numeric phone numbers keep all their digits.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Truthy mirrors the loose truthiness webhook senders rely on: zero values,
// empty strings and empty collections count as absent.
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case map[string]interface{}:
		return len(v) > 0
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}
