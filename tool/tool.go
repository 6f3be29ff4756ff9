// Package tool normalizes caller-supplied tool objects into the minimal
// descriptor form forwarded to the backend engine. Tools are described, not
// executed: the executor never validates or sandboxes them.
package tool

import (
	"fmt"
	"strings"
)

// Tool is the capability a tool object may expose to be described to the
// backend. Both accessors are optional in practice: values that implement
// only one of them, or neither, are still accepted by Of and Convert.
type Tool interface {
	// Name returns the identifier the backend uses to refer to the tool.
	Name() string

	// Description returns a human-readable summary of what the tool does.
	Description() string
}

// Named is implemented by tool objects that expose only a name.
type Named interface{ Name() string }

// Described is implemented by tool objects that expose only a description.
type Described interface{ Description() string }

// Descriptor is the normalized view of a tool handed to the backend.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Static is a Tool with fixed name and description.
type Static struct {
	name        string
	description string
}

// NewStatic constructs a Static tool.
func NewStatic(name, description string) *Static {
	return &Static{name: name, description: description}
}

// Name implements Tool.
func (s *Static) Name() string { return s.name }

// Description implements Tool.
func (s *Static) Description() string { return s.description }

// Of adapts an arbitrary value to the Tool interface. Absent accessors fall
// back to the stringified value for the name and "" for the description.
// Mappings are read through their "name" and "description" keys.
func Of(v any) Tool {
	switch t := v.(type) {
	case Tool:
		return t
	case string:
		return NewStatic(t, "")
	case map[string]any:
		return NewStatic(stringOr(t["name"], fmt.Sprint(t)), stringOr(t["description"], ""))
	case map[string]string:
		name, ok := t["name"]
		if !ok {
			name = fmt.Sprint(t)
		}
		return NewStatic(name, t["description"])
	}
	return &partial{v: v}
}

// partial wraps values that implement at most one of the Tool accessors.
type partial struct{ v any }

func (p *partial) Name() string {
	if n, ok := p.v.(Named); ok {
		return n.Name()
	}
	return fmt.Sprint(p.v)
}

func (p *partial) Description() string {
	if d, ok := p.v.(Described); ok {
		return d.Description()
	}
	return ""
}

// Describe builds the descriptor of a single tool value. It never panics:
// an accessor that panics is replaced by its default.
func Describe(v any) Descriptor {
	t := Of(v)
	return Descriptor{
		Name:        guard(t.Name, func() string { return fmt.Sprint(v) }),
		Description: guard(t.Description, func() string { return "" }),
	}
}

// Convert describes every tool in order, one descriptor per input value.
// The result is never nil.
func Convert(tools []any) []Descriptor {
	out := make([]Descriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, Describe(t))
	}
	return out
}

// Names returns the descriptor names joined by ", " for log output.
func Names(ds []Descriptor) string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return strings.Join(names, ", ")
}

func guard(get func() string, fallback func() string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fallback()
		}
	}()
	return get()
}

func stringOr(v any, fallback string) string {
	switch s := v.(type) {
	case nil:
		return fallback
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
