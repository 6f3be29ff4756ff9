package executor

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// InputText extracts the text to forward from an invocation input. Mappings
// contribute the first non-empty of their "input" and "text" values, or "".
// Any other value is rendered as text; nil renders as "".
func InputText(input any) string {
	if m, ok := asMapping(input); ok {
		return firstNonEmpty(Render(m["input"]), Render(m["text"]))
	}
	return Render(input)
}

// CallText picks the text of a direct call: the first positional argument,
// else the "input" keyword, else "".
func CallText(args []any, kwargs map[string]any) string {
	if len(args) > 0 {
		return Render(args[0])
	}
	return Render(kwargs["input"])
}

// Output normalizes a raw backend result into its output text. A mapping
// yields its "output" value, or a rendering of the whole mapping when that
// key is absent. Anything else is rendered directly.
func Output(raw any) string {
	if m, ok := asMapping(raw); ok {
		if out, ok := m["output"]; ok {
			return Render(out)
		}
		return Render(raw)
	}
	return Render(raw)
}

// Render converts a value to text. Strings pass through, nil is "", byte
// slices are decoded, Stringers and errors use their own text, scalars use
// fmt, and composite values are rendered as JSON.
func Render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// asMapping reports whether raw is a mapping with string keys and returns
// a generic view of it.
func asMapping(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
