package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/core"
	"github.com/mrsaurabh009/team-of-ai-agents/internal/util"
	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/metrics"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// Defaults applied by New.
const (
	DefaultModel  = "gpt-4"
	DefaultPrompt = "You are XAgent integrated into L3AGI."
	DefaultName   = "XAgent"
)

// Operation names used in logs and metrics.
const (
	OpRun    = "run"
	OpInvoke = "invoke"
	OpCall   = "call"
	OpStream = "stream"
)

// ModelNamer is implemented by language-model objects that carry a model
// identifier.
type ModelNamer interface {
	ModelName() string
}

// Opener resolves an engine and constructs it with the given settings.
// *backend.Resolver implements it.
type Opener interface {
	Open(ctx context.Context, s backend.Settings) (*backend.Handle, error)
}

// Options configures an Executor.
type Options struct {
	// Model selects the model. When empty, LLM is consulted, then
	// DefaultModel.
	Model string

	// LLM is an optional language-model object. When it implements
	// ModelNamer its model name is used in the absence of Model.
	LLM any

	// Tools are forwarded to the engine as descriptors on every call. Any
	// value is accepted; see tool.Of.
	Tools []any

	// Prompt is the engine's system prompt. Defaults to DefaultPrompt. It
	// may reference {{.model}}, {{.name}} and {{.tools}} (the tool names).
	// A prompt that is not a valid template is used verbatim.
	Prompt string

	// Name labels stream events. Defaults to DefaultName.
	Name string

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Executor drives a constructed engine through the agent-executor contract.
type Executor struct {
	handle *backend.Handle
	opts   Options
	logger logging.Logger
}

// New resolves and constructs the engine, then returns an Executor over it.
// Resolution and construction errors are returned unchanged.
func New(ctx context.Context, opener Opener, optFns ...func(o *Options)) (*Executor, error) {
	opts := buildOptions(optFns)
	h, err := opener.Open(ctx, backend.Settings{Model: opts.Model, Prompt: opts.Prompt})
	if err != nil {
		return nil, err
	}
	return newExecutor(h, opts), nil
}

// NewFromHandle wraps an already constructed engine.
func NewFromHandle(h *backend.Handle, optFns ...func(o *Options)) (*Executor, error) {
	if h == nil || h.Controller == nil {
		return nil, fmt.Errorf("executor: handle has no controller")
	}
	return newExecutor(h, buildOptions(optFns)), nil
}

func buildOptions(optFns []func(o *Options)) Options {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == "" {
		if n, ok := opts.LLM.(ModelNamer); ok {
			opts.Model = n.ModelName()
		}
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Tools == nil {
		opts.Tools = []any{}
	}
	descs := tool.Convert(opts.Tools)
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	prompt, err := util.RenderTemplate(opts.Prompt, map[string]any{
		"model": opts.Model,
		"name":  opts.Name,
		"tools": names,
	})
	if err != nil {
		logging.OrNoOp(opts.Logger).Debug("Prompt is not a template; using it verbatim", "error", err)
		return opts
	}
	opts.Prompt = prompt
	return opts
}

func newExecutor(h *backend.Handle, opts Options) *Executor {
	e := &Executor{handle: h, opts: opts, logger: logging.OrNoOp(opts.Logger)}
	e.logger.Info("Executor ready",
		"model", opts.Model,
		"strategy", h.Strategy,
		"tools", len(opts.Tools),
	)
	return e
}

// Model returns the model the engine was configured with.
func (e *Executor) Model() string { return e.opts.Model }

// Prompt returns the engine's system prompt.
func (e *Executor) Prompt() string { return e.opts.Prompt }

// Name returns the label used on stream events.
func (e *Executor) Name() string { return e.opts.Name }

// Strategy returns the resolution strategy that located the engine.
func (e *Executor) Strategy() backend.Strategy { return e.handle.Strategy }

// Tools returns the descriptors forwarded on every call.
func (e *Executor) Tools() []tool.Descriptor { return tool.Convert(e.opts.Tools) }

// Run invokes the engine with text and returns the output. Backend
// failures yield an error-marker string.
func (e *Executor) Run(ctx context.Context, text string) string {
	return core.Result(e.invoke(ctx, OpRun, text)).Output
}

// Invoke invokes the engine with the text extracted from input (see
// InputText) and returns the canonical result.
func (e *Executor) Invoke(ctx context.Context, input any) core.InvocationResult {
	return core.Result(e.invoke(ctx, OpInvoke, InputText(input)))
}

// Call forwards the first positional argument, else the "input" keyword,
// else "", as the text of a Run.
func (e *Executor) Call(ctx context.Context, args []any, kwargs map[string]any) string {
	return core.Result(e.invoke(ctx, OpCall, CallText(args, kwargs))).Output
}

// StreamEvents invokes the engine in its own goroutine and delivers exactly
// one event on the returned channel: on_chat_model_stream with the full
// output, or on_error with the failure message. The channel is then closed.
// If ctx is done before delivery the event is dropped. An empty version
// selects core.DefaultStreamVersion.
func (e *Executor) StreamEvents(ctx context.Context, input any, version string) <-chan core.StreamEvent {
	if version == "" {
		version = core.DefaultStreamVersion
	}
	text := InputText(input)
	runID := core.NewID()
	out := make(chan core.StreamEvent, 1)

	go func() {
		defer close(out)
		ev := core.StreamEventFor(e.invoke(ctx, OpStream, text), runID, e.opts.Name)
		ev.Metadata = map[string]any{"version": version}
		if ctx.Err() != nil {
			e.logger.Debug("Stream cancelled, dropping event", "run_id", runID, "event", ev.Event)
			return
		}
		e.opts.Metrics.ObserveStreamEvent(ev.Event)
		out <- ev
	}()
	return out
}

func (e *Executor) invoke(ctx context.Context, op, text string) core.Outcome {
	descs := tool.Convert(e.opts.Tools)
	e.logger.Debug("Invoking backend", "operation", op, "tools", tool.Names(descs))

	start := time.Now()
	o := e.call(ctx, text, descs)
	elapsed := time.Since(start)

	if f, ok := o.(core.Failure); ok {
		e.opts.Metrics.ObserveInvocation(op, metrics.StatusError, elapsed)
		e.logger.Warn("Backend call failed",
			"operation", op,
			"kind", f.Kind,
			"error", f.Message,
			"duration", elapsed,
		)
		return o
	}
	e.opts.Metrics.ObserveInvocation(op, metrics.StatusSuccess, elapsed)
	e.logger.Debug("Backend call completed", "operation", op, "duration", elapsed)
	return o
}

// call runs the controller and classifies the result.
func (e *Executor) call(ctx context.Context, text string, descs []tool.Descriptor) (o core.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprint(rec)
			o = core.Failure{Kind: core.FailureBackendPanic, Message: msg, Err: fmt.Errorf("backend panic: %v", rec)}
		}
	}()
	raw, err := e.handle.Controller.Run(ctx, text, descs)
	if err != nil {
		return core.Failure{Kind: core.FailureBackendError, Message: err.Error(), Err: err}
	}
	return core.Success{Output: Output(raw), Raw: raw}
}
