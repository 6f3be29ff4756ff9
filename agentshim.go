// Package agentshim provides a high-level façade that assembles the pieces
// of the executor shim from a config.Config. Most applications interact with
// this package by:
//  1. Loading a configuration (config.Load)
//  2. Creating a Shim via New(), which links the selected in-process engine
//     into a registry and prepares a resolver over it
//  3. Building executors with Shim.Executor and driving them through Run,
//     Invoke, Call and StreamEvents
//
// All defaults are safe for local development: with Engine set to "echo" the
// shim runs entirely offline.
package agentshim

import (
	"context"
	"fmt"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/backend/anthropic"
	"github.com/mrsaurabh009/team-of-ai-agents/backend/echo"
	"github.com/mrsaurabh009/team-of-ai-agents/backend/openai"
	"github.com/mrsaurabh009/team-of-ai-agents/config"
	"github.com/mrsaurabh009/team-of-ai-agents/executor"
	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/metrics"
)

// Options configures the Shim instance.
type Options struct {
	// Registry receives the engine bindings. Defaults to a fresh registry;
	// pass a shared one to let several shims resolve against it.
	Registry *backend.Registry

	// Echo is the engine installed when the configuration selects "echo".
	// Defaults to echo.New().
	Echo *echo.Engine

	// Resolver applies extra resolver options after the configured ones.
	Resolver []func(o *backend.ResolverOptions)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics records resolution and invocation metrics when non-nil.
	Metrics *metrics.Metrics
}

// Shim is the high-level façade aggregating registry, resolver and
// executor construction.
type Shim struct {
	cfg      *config.Config
	opts     Options
	resolver *backend.Resolver
}

// New creates a Shim for cfg. The selected engine is installed under the
// configured package name before any resolution happens.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Shim, error) {
	if cfg == nil {
		return nil, fmt.Errorf("agentshim: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = backend.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if installEngine(cfg, &opts) {
		opts.Logger.Debug("Installed engine", "engine", cfg.Engine, "package", cfg.Package)
	}

	resolverFns := append([]func(o *backend.ResolverOptions){func(o *backend.ResolverOptions) {
		o.Engine = cfg.EngineName
		o.Package = cfg.Package
		o.Root = cfg.Root
		o.SearchPathEnv = cfg.SearchPathEnv
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	}}, opts.Resolver...)

	return &Shim{
		cfg:      cfg,
		opts:     opts,
		resolver: backend.NewResolver(opts.Registry, resolverFns...),
	}, nil
}

func installEngine(cfg *config.Config, opts *Options) bool {
	switch cfg.Engine {
	case config.EngineEcho:
		if opts.Echo == nil {
			opts.Echo = echo.New()
		}
		return opts.Echo.Install(opts.Registry, cfg.Package)
	case config.EngineOpenAI:
		p := cfg.OpenAI
		return openai.Install(opts.Registry, cfg.Package, func(o *openai.Options) {
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			o.Model = p.Model
			o.Temperature = p.Temperature
			o.MaxCompletionTokens = p.MaxTokens
		})
	case config.EngineAnthropic:
		p := cfg.Anthropic
		return anthropic.Install(opts.Registry, cfg.Package, func(o *anthropic.Options) {
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			o.Model = p.Model
			o.Temperature = p.Temperature
			o.MaxTokens = p.MaxTokens
		})
	default:
		return false
	}
}

// Config returns the configuration the shim was built from.
func (s *Shim) Config() *config.Config { return s.cfg }

// Registry returns the registry holding the engine bindings.
func (s *Shim) Registry() *backend.Registry { return s.opts.Registry }

// Resolver returns the shared resolver. Its outcome is memoized, so every
// executor of a Shim uses the same bindings.
func (s *Shim) Resolver() *backend.Resolver { return s.resolver }

// Resolve runs backend resolution without constructing the engine.
func (s *Shim) Resolve(ctx context.Context) (backend.Bindings, error) {
	return s.resolver.Resolve(ctx)
}

// Executor constructs an executor using the configured model, prompt, name
// and tools. optFns run after the configuration is applied.
func (s *Shim) Executor(ctx context.Context, optFns ...func(o *executor.Options)) (*executor.Executor, error) {
	fns := append([]func(o *executor.Options){func(o *executor.Options) {
		o.Model = s.cfg.Model
		o.Prompt = s.cfg.Prompt
		o.Name = s.cfg.Name
		o.Tools = s.cfg.ToolValues()
		o.Logger = s.opts.Logger
		o.Metrics = s.opts.Metrics
	}}, optFns...)
	return executor.New(ctx, s.resolver, fns...)
}
