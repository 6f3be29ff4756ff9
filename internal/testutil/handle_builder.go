package testutil

import (
	"context"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// HandleBuilder helps construct backend handles with fluent chaining.
// Example:
//
//	h := NewHandleBuilder().Model("gpt-4").Returns("hi").Build()
type HandleBuilder struct {
	settings backend.Settings
	strategy backend.Strategy
	ctrl     backend.Controller
}

// NewHandleBuilder creates a builder for an installed-strategy handle whose
// controller echoes its input text.
func NewHandleBuilder() *HandleBuilder {
	return &HandleBuilder{
		strategy: backend.StrategyInstalled,
		ctrl: backend.ControllerFunc(func(_ context.Context, text string, _ []tool.Descriptor) (any, error) {
			return map[string]any{"output": text}, nil
		}),
	}
}

// Model sets the configured model (chainable).
func (b *HandleBuilder) Model(m string) *HandleBuilder {
	b.settings.Model = m
	return b
}

// Prompt sets the configured prompt (chainable).
func (b *HandleBuilder) Prompt(p string) *HandleBuilder {
	b.settings.Prompt = p
	return b
}

// Strategy sets the strategy the handle reports (chainable).
func (b *HandleBuilder) Strategy(s backend.Strategy) *HandleBuilder {
	b.strategy = s
	return b
}

// Controller sets the controller (chainable).
func (b *HandleBuilder) Controller(c backend.Controller) *HandleBuilder {
	b.ctrl = c
	return b
}

// Returns installs a controller that always answers raw (chainable).
func (b *HandleBuilder) Returns(raw any) *HandleBuilder {
	b.ctrl = backend.ControllerFunc(func(context.Context, string, []tool.Descriptor) (any, error) {
		return raw, nil
	})
	return b
}

// Fails installs a controller that always fails with err (chainable).
func (b *HandleBuilder) Fails(err error) *HandleBuilder {
	b.ctrl = backend.ControllerFunc(func(context.Context, string, []tool.Descriptor) (any, error) {
		return nil, err
	})
	return b
}

// Build returns the handle.
func (b *HandleBuilder) Build() *backend.Handle {
	return &backend.Handle{
		Config:     backend.BasicConfig{S: b.settings},
		Controller: b.ctrl,
		Strategy:   b.strategy,
	}
}

// Install binds factories producing the builder's controller under pkg. The
// config factory records the settings it receives.
func (b *HandleBuilder) Install(reg *backend.Registry, pkg string) bool {
	ctrl := b.ctrl
	return backend.Install(reg, pkg,
		func(s backend.Settings) (backend.Config, error) { return backend.BasicConfig{S: s}, nil },
		func(backend.Config) (backend.Controller, error) { return ctrl, nil },
	)
}
