package form

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-editform/pkg/schema"
)

// Value is a field value held by a record. The concrete types are String,
// Bool and List.
type Value interface {
	// Empty reports whether the value carries no data. A false Bool is not
	// empty: explicit false is meaningful on the wire.
	Empty() bool
	isValue()
}

// String is a scalar text value.
type String string

// Bool is a checkbox value.
type Bool bool

// List is a string array value.
type List []string

func (s String) Empty() bool { return strings.TrimSpace(string(s)) == "" }
func (Bool) Empty() bool     { return false }
func (l List) Empty() bool {
	for _, item := range l {
		if strings.TrimSpace(item) != "" {
			return false
		}
	}
	return true
}

func (String) isValue() {}
func (Bool) isValue()   {}
func (List) isValue()   {}

// Text returns the value as a display string.
func Text(v Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case String:
		return string(val)
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case List:
		return strings.Join(val, ", ")
	default:
		return ""
	}
}

// Parse converts raw user input into the value type the field declares:
// checkboxes become Bool, list fields split on commas, everything else stays
// a String.
func Parse(field schema.Field, raw string) Value {
	switch field.Encoding() {
	case schema.EncodingBool:
		return Bool(parseBool(raw))
	case schema.EncodingCSV:
		return SplitList(raw)
	default:
		return String(raw)
	}
}

// SplitList splits a comma separated string, trimming every item and
// dropping empty ones.
func SplitList(raw string) List {
	parts := strings.Split(raw, ",")
	out := make(List, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "oui":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
