package testutil

import "github.com/mrsaurabh009/team-of-ai-agents/tool"

// NameOnly exposes only a name.
type NameOnly struct{ N string }

// Name implements tool.Named.
func (n NameOnly) Name() string { return n.N }

// DescriptionOnly exposes only a description.
type DescriptionOnly struct{ D string }

// Description implements tool.Described.
func (d DescriptionOnly) Description() string { return d.D }

// PanickyTool panics from both accessors.
type PanickyTool struct{}

// Name implements tool.Tool.
func (PanickyTool) Name() string { panic("name unavailable") }

// Description implements tool.Tool.
func (PanickyTool) Description() string { panic("description unavailable") }

// MixedTools returns tool-like values covering every accepted shape: a full
// tool, partial tools, a mapping, a plain string, a panicking tool, an
// arbitrary value and nil.
func MixedTools() []any {
	return []any{
		tool.NewStatic("search", "web search"),
		NameOnly{N: "calc"},
		DescriptionOnly{D: "no name"},
		map[string]any{"name": "weather", "description": "forecast"},
		"plain",
		PanickyTool{},
		42,
		nil,
	}
}
