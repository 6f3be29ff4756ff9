// Package echo provides an offline engine with deterministic output. It
// answers from canned responses and can be scripted to fail, which makes it
// the engine of choice for tests, examples and the CLI smoke command.
package echo

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// Engine is a lightweight in-memory engine.
type Engine struct {
	mu        sync.RWMutex
	responses map[string]any
	failures  map[string]error
	panics    map[string]any
	calls     int
}

// New constructs an Engine with no canned responses.
func New() *Engine {
	return &Engine{
		responses: make(map[string]any),
		failures:  make(map[string]error),
		panics:    make(map[string]any),
	}
}

// AddResponse registers a canned raw result for an input text. The value is
// returned as-is, so it may be a mapping, a string or anything else.
func (e *Engine) AddResponse(text string, raw any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[text] = raw
}

// AddFailure makes Run return err for an input text.
func (e *Engine) AddFailure(text string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[text] = err
}

// AddPanic makes Run panic with v for an input text.
func (e *Engine) AddPanic(text string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panics[text] = v
}

// Calls reports how many times the engine ran.
func (e *Engine) Calls() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.calls
}

// Reply is the default output for text when no canned response exists.
func Reply(text string) string { return fmt.Sprintf("Echo: %s", text) }

// Run answers text. Unknown inputs produce a mapping holding the default
// reply, the names of the forwarded tools, and the model the config carries.
func (e *Engine) Run(ctx context.Context, cfg backend.Config, text string, tools []tool.Descriptor) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.calls++
	raw, hasResp := e.responses[text]
	err := e.failures[text]
	p, hasPanic := e.panics[text]
	e.mu.Unlock()

	if hasPanic {
		panic(p)
	}
	if err != nil {
		return nil, err
	}
	if hasResp {
		return raw, nil
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	s := cfg.Settings()
	return map[string]any{
		"output": Reply(text),
		"tools":  names,
		"model":  s.Model,
		"prompt": s.Prompt,
	}, nil
}

// Controller binds the engine to a configuration.
func (e *Engine) Controller(cfg backend.Config) backend.Controller {
	return backend.ControllerFunc(func(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
		return e.Run(ctx, cfg, text, tools)
	})
}

// Install binds the engine's entry points under pkg in reg. Existing
// bindings are kept.
func (e *Engine) Install(reg *backend.Registry, pkg string) bool {
	return backend.Install(reg, pkg,
		func(s backend.Settings) (backend.Config, error) { return backend.BasicConfig{S: s}, nil },
		func(cfg backend.Config) (backend.Controller, error) { return e.Controller(cfg), nil },
	)
}
