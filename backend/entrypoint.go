package backend

import (
	"context"
	"fmt"
	"path"

	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// Entry point names bound under an engine package.
const (
	ConfigEntry     = "config"
	ControllerEntry = "controller"
)

// Settings are the inputs every engine configuration accepts.
type Settings struct {
	// Model identifies the model the engine should drive.
	Model string
	// Prompt is the system prompt the engine should run with.
	Prompt string
}

// Config is an engine configuration produced by a ConfigFactory.
type Config interface {
	Settings() Settings
}

// BasicConfig is a Config carrying nothing but Settings. Engines without
// extra knobs return it from their ConfigFactory.
type BasicConfig struct {
	S Settings
}

// Settings implements Config.
func (c BasicConfig) Settings() Settings { return c.S }

// Controller runs the engine. The returned value is either a map[string]any
// holding an "output" key or any value that can be rendered as text.
type Controller interface {
	Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error)
}

// ControllerFunc adapts a plain function to the Controller interface.
type ControllerFunc func(ctx context.Context, text string, tools []tool.Descriptor) (any, error)

// Run implements Controller.
func (f ControllerFunc) Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
	return f(ctx, text, tools)
}

// ConfigFactory builds an engine configuration. It may fail, for example on
// missing credentials.
type ConfigFactory func(Settings) (Config, error)

// ControllerFactory builds a controller from a configuration.
type ControllerFactory func(Config) (Controller, error)

// EntryPath returns the registry path of an entry point under pkg.
func EntryPath(pkg, entry string) string { return path.Join(pkg, entry) }

// Install binds both entry points under pkg. Existing bindings are kept; it
// reports whether both entries were newly added.
func Install(reg *Registry, pkg string, cf ConfigFactory, kf ControllerFactory) bool {
	a := reg.RegisterValue(EntryPath(pkg, ConfigEntry), cf)
	b := reg.RegisterValue(EntryPath(pkg, ControllerEntry), kf)
	return a && b
}

// Bindings are the resolved entry points of an engine and the strategy that
// found them.
type Bindings struct {
	Config     ConfigFactory
	Controller ControllerFactory
	Strategy   Strategy
}

func lookup(reg *Registry, pkg string) (ConfigFactory, ControllerFactory, error) {
	cv, err := reg.Import(EntryPath(pkg, ConfigEntry))
	if err != nil {
		return nil, nil, err
	}
	kv, err := reg.Import(EntryPath(pkg, ControllerEntry))
	if err != nil {
		return nil, nil, err
	}
	var cf ConfigFactory
	switch f := cv.(type) {
	case ConfigFactory:
		cf = f
	case func(Settings) (Config, error):
		cf = f
	default:
		return nil, nil, fmt.Errorf("%s: unexpected entry point type %T", EntryPath(pkg, ConfigEntry), cv)
	}
	var kf ControllerFactory
	switch f := kv.(type) {
	case ControllerFactory:
		kf = f
	case func(Config) (Controller, error):
		kf = f
	default:
		return nil, nil, fmt.Errorf("%s: unexpected entry point type %T", EntryPath(pkg, ControllerEntry), kv)
	}
	if cf == nil || kf == nil {
		return nil, nil, fmt.Errorf("%s: nil entry point", pkg)
	}
	return cf, kf, nil
}
