package executor

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/backend/echo"
	"github.com/mrsaurabh009/team-of-ai-agents/core"
	"github.com/mrsaurabh009/team-of-ai-agents/internal/testutil"
	"github.com/mrsaurabh009/team-of-ai-agents/metrics"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

type namedLLM struct{ name string }

func (l namedLLM) ModelName() string { return l.name }

type recordingOpener struct {
	settings backend.Settings
	handle   *backend.Handle
	err      error
}

func (r *recordingOpener) Open(_ context.Context, s backend.Settings) (*backend.Handle, error) {
	r.settings = s
	return r.handle, r.err
}

func newEchoExecutor(t *testing.T, engine *echo.Engine, optFns ...func(o *Options)) *Executor {
	t.Helper()
	reg := backend.NewRegistry()
	engine.Install(reg, backend.DefaultPackage)
	r := backend.NewResolver(reg, func(o *backend.ResolverOptions) { o.Root = t.TempDir() })
	e, err := New(context.Background(), r, optFns...)
	require.NoError(t, err)
	return e
}

func mustExecutor(t *testing.T, h *backend.Handle, optFns ...func(o *Options)) *Executor {
	t.Helper()
	e, err := NewFromHandle(h, optFns...)
	require.NoError(t, err)
	return e
}

func collect(ch <-chan core.StreamEvent) []core.StreamEvent {
	var evs []core.StreamEvent
	for ev := range ch {
		evs = append(evs, ev)
	}
	return evs
}

func TestNew_Defaults(t *testing.T) {
	op := &recordingOpener{handle: testutil.NewHandleBuilder().Build()}
	e, err := New(context.Background(), op)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, e.Model())
	assert.Equal(t, DefaultPrompt, e.Prompt())
	assert.Equal(t, DefaultName, e.Name())
	assert.Equal(t, backend.StrategyInstalled, e.Strategy())
	assert.Empty(t, e.Tools())
	assert.Equal(t, backend.Settings{Model: "gpt-4", Prompt: "You are XAgent integrated into L3AGI."}, op.settings)
}

func TestNew_ModelSelection(t *testing.T) {
	h := testutil.NewHandleBuilder().Build()

	t.Run("llm model name", func(t *testing.T) {
		op := &recordingOpener{handle: h}
		e, err := New(context.Background(), op, func(o *Options) { o.LLM = namedLLM{name: "gpt-4o"} })
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", e.Model())
		assert.Equal(t, "gpt-4o", op.settings.Model)
	})

	t.Run("explicit model wins", func(t *testing.T) {
		e := mustExecutor(t, h, func(o *Options) {
			o.Model = "claude"
			o.LLM = namedLLM{name: "gpt-4o"}
		})
		assert.Equal(t, "claude", e.Model())
	})

	t.Run("llm without model name", func(t *testing.T) {
		e := mustExecutor(t, h, func(o *Options) { o.LLM = struct{}{} })
		assert.Equal(t, DefaultModel, e.Model())
	})
}

func TestNew_PromptTemplate(t *testing.T) {
	op := &recordingOpener{handle: testutil.NewHandleBuilder().Build()}
	e, err := New(context.Background(), op, func(o *Options) {
		o.Model = "gpt-4o"
		o.Prompt = `You are {{.name}} on {{.model}} with tools: {{join ", " .tools}}.`
		o.Tools = []any{"search", tool.NewStatic("calc", "math")}
	})
	require.NoError(t, err)
	assert.Equal(t, "You are XAgent on gpt-4o with tools: search, calc.", e.Prompt())
	assert.Equal(t, e.Prompt(), op.settings.Prompt)

}

func TestNew_PromptWithLiteralBracesIsVerbatim(t *testing.T) {
	for _, prompt := range []string{
		`Reply as JSON, e.g. {{"answer": 1}}`,
		"{{.broken",
	} {
		op := &recordingOpener{handle: testutil.NewHandleBuilder().Build()}
		e, err := New(context.Background(), op, func(o *Options) { o.Prompt = prompt })
		require.NoError(t, err)
		assert.Equal(t, prompt, e.Prompt())
		assert.Equal(t, prompt, op.settings.Prompt)
	}
}

func TestNew_PropagatesResolutionFailure(t *testing.T) {
	r := backend.NewResolver(backend.NewRegistry(), func(o *backend.ResolverOptions) {
		o.Root = t.TempDir()
		o.LookPath = func(string) (string, error) { return "", errors.New("not found") }
		o.Getenv = func(string) string { return "" }
	})
	e, err := New(context.Background(), r)
	assert.Nil(t, e)
	require.ErrorIs(t, err, backend.ErrResolution)

	var rerr *backend.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Len(t, rerr.Attempts, 3)
}

func TestNew_PropagatesInitFailure(t *testing.T) {
	reg := backend.NewRegistry()
	backend.Install(reg, backend.DefaultPackage,
		func(backend.Settings) (backend.Config, error) { return nil, errors.New("missing credentials") },
		func(backend.Config) (backend.Controller, error) { return nil, nil },
	)
	r := backend.NewResolver(reg, func(o *backend.ResolverOptions) { o.Root = t.TempDir() })

	_, err := New(context.Background(), r)
	require.ErrorIs(t, err, backend.ErrInit)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestNewFromHandle_RequiresController(t *testing.T) {
	_, err := NewFromHandle(nil)
	assert.Error(t, err)
	_, err = NewFromHandle(&backend.Handle{})
	assert.Error(t, err)
}

func TestInvoke_ForwardsTextAndTools(t *testing.T) {
	ctrl := new(testutil.MockController)
	want := []tool.Descriptor{
		{Name: "search", Description: "web search"},
		{Name: "plain", Description: ""},
	}
	ctrl.On("Run", mock.Anything, "Hello", want).Return(map[string]any{"output": "Hi!"}, nil).Once()

	e := mustExecutor(t, testutil.NewHandleBuilder().Controller(ctrl).Build(), func(o *Options) {
		o.Tools = []any{tool.NewStatic("search", "web search"), "plain"}
	})
	res := e.Invoke(context.Background(), map[string]any{"input": "Hello"})

	assert.Equal(t, "Hi!", res.Output)
	assert.NotNil(t, res.Actions)
	assert.Empty(t, res.Actions)
	assert.Equal(t, map[string]any{"output": "Hi!"}, res.Raw)
	ctrl.AssertExpectations(t)
}

func TestInvoke_EmptyTextWhenKeysAbsent(t *testing.T) {
	ctrl := new(testutil.MockController)
	ctrl.On("Run", mock.Anything, "", mock.Anything).Return("ok", nil).Once()

	e := mustExecutor(t, testutil.NewHandleBuilder().Controller(ctrl).Build())
	res := e.Invoke(context.Background(), map[string]any{"question": "ignored"})

	assert.Equal(t, "ok", res.Output)
	ctrl.AssertExpectations(t)
}

func TestInvoke_NonMappingRawKeptVerbatim(t *testing.T) {
	type answer struct {
		Text string `json:"text"`
	}
	raw := answer{Text: "hi"}
	e := mustExecutor(t, testutil.NewHandleBuilder().Returns(raw).Build())

	res := e.Invoke(context.Background(), "q")
	assert.Equal(t, `{"text":"hi"}`, res.Output)
	assert.Equal(t, raw, res.Raw)
}

func TestInvoke_MappingWithoutOutput(t *testing.T) {
	raw := map[string]any{"answer": 42}
	e := mustExecutor(t, testutil.NewHandleBuilder().Returns(raw).Build())

	res := e.Invoke(context.Background(), "q")
	assert.Equal(t, `{"answer":42}`, res.Output)
	assert.Equal(t, raw, res.Raw)
}

func TestInvoke_BackendErrorIsFolded(t *testing.T) {
	e := mustExecutor(t, testutil.NewHandleBuilder().Fails(errors.New("engine exploded")).Build())

	res := e.Invoke(context.Background(), "q")
	assert.Equal(t, "[xagent-error] engine exploded", res.Output)
	assert.Equal(t, map[string]any{"error": "engine exploded", "kind": "backend_error"}, res.Raw)
	assert.Empty(t, res.Actions)
	assert.Equal(t, []string{"actions", "output", "raw"}, sortedKeys(res.Map()))
}

func TestInvoke_BackendPanicIsFolded(t *testing.T) {
	ctrl := backend.ControllerFunc(func(context.Context, string, []tool.Descriptor) (any, error) {
		panic("nil map write")
	})
	e := mustExecutor(t, testutil.NewHandleBuilder().Controller(ctrl).Build())

	var res core.InvocationResult
	require.NotPanics(t, func() { res = e.Invoke(context.Background(), "q") })
	assert.Equal(t, "[xagent-error] nil map write", res.Output)
	assert.Equal(t, "backend_panic", res.Raw.(map[string]any)["kind"])
}

func TestInvoke_ToleratesBrokenTools(t *testing.T) {
	ctrl := new(testutil.MockController)
	ctrl.On("Run", mock.Anything, "q", mock.MatchedBy(func(ds []tool.Descriptor) bool {
		return len(ds) == len(testutil.MixedTools())
	})).Return("ok", nil).Once()

	e := mustExecutor(t, testutil.NewHandleBuilder().Controller(ctrl).Build(), func(o *Options) {
		o.Tools = testutil.MixedTools()
	})
	assert.Equal(t, "ok", e.Invoke(context.Background(), "q").Output)
	ctrl.AssertExpectations(t)
}

func TestRun_NeverFailsOnBackendError(t *testing.T) {
	for _, text := range []string{"", "hello", "multi\nline", "ünïcødé"} {
		e := mustExecutor(t, testutil.NewHandleBuilder().Fails(errors.New("down")).Build())
		out := e.Run(context.Background(), text)
		assert.Equal(t, core.ErrorMarker+" down", out)
	}
}

func TestCall_MatchesRun(t *testing.T) {
	e := newEchoExecutor(t, echo.New())
	ctx := context.Background()

	assert.Equal(t, e.Run(ctx, "Hello from call"), e.Call(ctx, []any{"Hello from call"}, nil))
	assert.Equal(t, e.Run(ctx, "kw"), e.Call(ctx, nil, map[string]any{"input": "kw"}))
	assert.Equal(t, e.Run(ctx, ""), e.Call(ctx, nil, nil))
}

func TestStreamEvents_Success(t *testing.T) {
	e := newEchoExecutor(t, echo.New())
	ctx := context.Background()

	evs := collect(e.StreamEvents(ctx, map[string]any{"input": "Stream test"}, ""))
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, core.EventChatModelStream, ev.Event)
	assert.Equal(t, e.Invoke(ctx, map[string]any{"input": "Stream test"}).Output, ev.Content())
	assert.Equal(t, "v2", ev.Metadata["version"])
	assert.Equal(t, DefaultName, ev.Name)
	assert.NotEmpty(t, ev.RunID)
}

func TestStreamEvents_Failure(t *testing.T) {
	engine := echo.New()
	engine.AddFailure("bad", errors.New("rate limited"))
	e := newEchoExecutor(t, engine)

	evs := collect(e.StreamEvents(context.Background(), "bad", "v1"))
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventError, evs[0].Event)
	assert.Contains(t, evs[0].Err(), "rate limited")
	assert.Equal(t, "v1", evs[0].Metadata["version"])
}

func TestStreamEvents_FreshRunPerCall(t *testing.T) {
	e := newEchoExecutor(t, echo.New())
	ctx := context.Background()

	a := collect(e.StreamEvents(ctx, "x", ""))
	b := collect(e.StreamEvents(ctx, "x", ""))
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].RunID, b[0].RunID)
}

func TestStreamEvents_CancelledBeforeDelivery(t *testing.T) {
	release := make(chan struct{})
	ctrl := backend.ControllerFunc(func(context.Context, string, []tool.Descriptor) (any, error) {
		<-release
		return "late", nil
	})
	e := mustExecutor(t, testutil.NewHandleBuilder().Controller(ctrl).Build())

	ctx, cancel := context.WithCancel(context.Background())
	ch := e.StreamEvents(ctx, "x", "")
	cancel()
	close(release)

	select {
	case ev, ok := <-ch:
		assert.False(t, ok, "unexpected event %+v", ev)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close")
	}
}

func TestMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m := metrics.MustNew(promReg)
	engine := echo.New()
	engine.AddFailure("bad", errors.New("x"))
	e := newEchoExecutor(t, engine, func(o *Options) { o.Metrics = m })
	ctx := context.Background()

	e.Run(ctx, "ok")
	e.Invoke(ctx, "bad")
	collect(e.StreamEvents(ctx, "ok", ""))

	series, err := promtestutil.GatherAndCount(promReg, "agentshim_executor_invocations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, series)
	series, err = promtestutil.GatherAndCount(promReg, "agentshim_executor_stream_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestEndToEnd(t *testing.T) {
	e := newEchoExecutor(t, echo.New(), func(o *Options) {
		o.Model = "gpt-4"
		o.Tools = []any{}
	})
	ctx := context.Background()

	out := e.Run(ctx, "Hello world")
	assert.NotEmpty(t, out)

	res := e.Invoke(ctx, map[string]any{"input": "Hello"})
	assert.IsType(t, "", res.Map()["output"])

	assert.Equal(t, e.Run(ctx, "Hello from call"), e.Call(ctx, []any{"Hello from call"}, nil))

	evs := collect(e.StreamEvents(ctx, map[string]any{"input": "Stream test"}, ""))
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventChatModelStream, evs[0].Event)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
