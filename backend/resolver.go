package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/metrics"
)

// Default engine naming.
const (
	DefaultEngine        = "XAgent"
	DefaultPackage       = "xagent"
	DefaultSearchPathEnv = "XAGENT_PATH"
	DefaultRepository    = "https://github.com/OpenBMB/XAgent.git"
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Engine is the engine's real top-level name. It names the vendored
	// directory and is the alias source.
	Engine string

	// Package is the name the rest of the system expects the entry points
	// under.
	Package string

	// Root is the directory holding external/. Defaults to the directory
	// of the running executable.
	Root string

	// SearchPathEnv names an environment variable listing engine
	// directories (os.PathListSeparator separated). Empty disables it.
	SearchPathEnv string

	// Remediation commands reported when the matching strategy fails.
	// Empty values are derived from the fields above.
	InstallHint string
	CloneHint   string
	PathHint    string
	AliasHint   string

	// LookPath and Getenv default to exec.LookPath and os.Getenv.
	LookPath func(file string) (string, error)
	Getenv   func(key string) string

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Resolver locates an engine's entry points in a Registry. The outcome of
// the first resolution, success or failure, is memoized: every strategy is
// tried at most once per Resolver, and concurrent callers share one attempt.
type Resolver struct {
	reg    *Registry
	opts   ResolverOptions
	logger logging.Logger

	group singleflight.Group

	mu       sync.Mutex
	done     bool
	bindings Bindings
	err      error
}

// NewResolver creates a Resolver over reg (a fresh Registry when nil).
func NewResolver(reg *Registry, optFns ...func(o *ResolverOptions)) *Resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	opts := ResolverOptions{
		Engine:        DefaultEngine,
		Package:       DefaultPackage,
		SearchPathEnv: DefaultSearchPathEnv,
		LookPath:      exec.LookPath,
		Getenv:        os.Getenv,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Root == "" {
		opts.Root = executableDir()
	}
	if opts.InstallHint == "" {
		opts.InstallHint = "pip install git+" + DefaultRepository
	}
	if opts.CloneHint == "" {
		opts.CloneHint = fmt.Sprintf("git clone %s %s", DefaultRepository, filepath.Join(opts.Root, "external", opts.Engine))
	}
	if opts.PathHint == "" {
		env := opts.SearchPathEnv
		if env == "" {
			env = DefaultSearchPathEnv
		}
		opts.PathHint = fmt.Sprintf("export %s=/path/to/%s/%s", env, opts.Engine, opts.Package)
	}
	if opts.AliasHint == "" {
		opts.AliasHint = fmt.Sprintf("bind the engine under its real name %q, e.g. Install(registry, %q)", opts.Engine, opts.Engine)
	}
	return &Resolver{reg: reg, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

func executableDir() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	wd, _ := os.Getwd()
	return wd
}

// Registry returns the registry the resolver reads and extends.
func (r *Resolver) Registry() *Registry { return r.reg }

// Options returns the effective options, defaults applied.
func (r *Resolver) Options() ResolverOptions { return r.opts }

// Resolve returns the engine's entry points. Cancelling ctx abandons the
// wait but not a resolution already in flight.
func (r *Resolver) Resolve(ctx context.Context) (Bindings, error) {
	if m, ok := r.memo(); ok {
		return m.bindings, m.err
	}
	ch := r.group.DoChan(r.opts.Package, func() (any, error) {
		if m, ok := r.memo(); ok {
			return m.bindings, m.err
		}
		b, err := r.resolve()
		r.mu.Lock()
		r.done, r.bindings, r.err = true, b, err
		r.mu.Unlock()
		return b, err
	})
	select {
	case <-ctx.Done():
		return Bindings{}, ctx.Err()
	case res := <-ch:
		b, _ := res.Val.(Bindings)
		return b, res.Err
	}
}

type resolution struct {
	bindings Bindings
	err      error
}

func (r *Resolver) memo() (resolution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return resolution{bindings: r.bindings, err: r.err}, r.done
}

type strategyStep struct {
	strategy Strategy
	try      func() (ConfigFactory, ControllerFactory, error)
	remedy   string
}

func (r *Resolver) resolve() (Bindings, error) {
	start := time.Now()
	steps := []strategyStep{
		{StrategyInstalled, r.tryInstalled, r.opts.InstallHint},
		{StrategyVendored, r.tryVendored, r.opts.CloneHint + " or " + r.opts.PathHint},
		{StrategyAliased, r.tryAliased, r.opts.AliasHint},
	}

	var attempts []Attempt
	for _, s := range steps {
		cf, kf, err := s.try()
		if err == nil {
			r.opts.Metrics.ObserveResolution(string(s.strategy), metrics.StatusSuccess)
			r.logger.Info("Backend resolved",
				"engine", r.opts.Engine,
				"package", r.opts.Package,
				"strategy", s.strategy,
				"duration", time.Since(start),
			)
			return Bindings{Config: cf, Controller: kf, Strategy: s.strategy}, nil
		}
		r.opts.Metrics.ObserveResolution(string(s.strategy), metrics.StatusError)
		r.logger.Debug("Resolution strategy failed", "strategy", s.strategy, "error", err)
		attempts = append(attempts, Attempt{Strategy: s.strategy, Err: err, Remedy: s.remedy})
	}

	err := &ResolutionError{Engine: r.opts.Engine, Package: r.opts.Package, Attempts: attempts}
	r.logger.Error("Backend resolution failed", "engine", r.opts.Engine, "package", r.opts.Package, "duration", time.Since(start))
	return Bindings{}, err
}

// tryInstalled looks for entry points linked into the binary, then for an
// engine executable on PATH.
func (r *Resolver) tryInstalled() (ConfigFactory, ControllerFactory, error) {
	cf, kf, err := lookup(r.reg, r.opts.Package)
	if err == nil {
		return cf, kf, nil
	}
	if !errors.Is(err, ErrModuleNotFound) {
		return nil, nil, err
	}
	exe, lerr := r.opts.LookPath(r.opts.Package)
	if lerr != nil {
		return nil, nil, fmt.Errorf("%w; no %q executable on PATH", err, r.opts.Package)
	}
	InstallCommand(r.reg, r.opts.Package, Command{Path: exe})
	return lookup(r.reg, r.opts.Package)
}

// tryVendored adds the first existing engine directory to the search path,
// then binds the entry points from the first search-path directory that
// describes a runnable engine.
func (r *Resolver) tryVendored() (ConfigFactory, ControllerFactory, error) {
	candidates := r.VendoredCandidates()
	found := ""
	for _, dir := range candidates {
		if isDir(dir) {
			found = dir
			break
		}
	}
	if found == "" {
		return nil, nil, fmt.Errorf("no vendored engine tree at %s", strings.Join(candidates, ", "))
	}
	if r.reg.AddSearchPath(found) {
		r.logger.Debug("Added engine directory to search path", "dir", found)
	}

	var errs []error
	for _, dir := range r.reg.SearchPath() {
		cmd, err := LoadManifest(dir, r.opts.Package)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		InstallCommand(r.reg, r.opts.Package, cmd)
		return lookup(r.reg, r.opts.Package)
	}
	return nil, nil, errors.Join(errs...)
}

// VendoredCandidates lists the directories the vendored strategy checks, in
// order: search-path environment entries, external/<Engine>/<package>, then
// the symlink-style external/<package>.
func (r *Resolver) VendoredCandidates() []string {
	var dirs []string
	if r.opts.SearchPathEnv != "" {
		for _, d := range filepath.SplitList(r.opts.Getenv(r.opts.SearchPathEnv)) {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	external := filepath.Join(r.opts.Root, "external")
	return append(dirs,
		filepath.Join(external, r.opts.Engine, r.opts.Package),
		filepath.Join(external, r.opts.Package),
	)
}

// tryAliased re-registers modules bound under the engine's real name at the
// expected package name.
func (r *Resolver) tryAliased() (ConfigFactory, ControllerFactory, error) {
	if r.opts.Engine == r.opts.Package {
		return nil, nil, fmt.Errorf("engine name %q equals package name; nothing to alias", r.opts.Engine)
	}
	modules := r.reg.Walk(r.opts.Engine)
	if len(modules) == 0 {
		return nil, nil, fmt.Errorf("%w: no modules registered under %q", ErrModuleNotFound, r.opts.Engine)
	}
	added := r.reg.Alias(r.opts.Engine, r.opts.Package)
	r.logger.Debug("Aliased engine modules", "from", r.opts.Engine, "to", r.opts.Package, "modules", len(modules), "added", added)
	cf, kf, err := lookup(r.reg, r.opts.Package)
	if err != nil {
		return nil, nil, fmt.Errorf("aliased %d of %d modules from %q: %w", added, len(modules), r.opts.Engine, err)
	}
	return cf, kf, nil
}

// Open resolves the engine and constructs its configuration and controller.
// Construction failures are reported as *InitError.
func (r *Resolver) Open(ctx context.Context, s Settings) (*Handle, error) {
	b, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	initErr := func(stage string, err error) error {
		return &InitError{Engine: r.opts.Engine, Stage: stage, Strategy: b.Strategy, Err: err}
	}

	cfg, err := safeBuild(func() (Config, error) { return b.Config(s) })
	if err != nil {
		return nil, initErr(ConfigEntry, err)
	}
	if cfg == nil {
		return nil, initErr(ConfigEntry, errors.New("config factory returned nil"))
	}
	ctrl, err := safeBuild(func() (Controller, error) { return b.Controller(cfg) })
	if err != nil {
		return nil, initErr(ControllerEntry, err)
	}
	if ctrl == nil {
		return nil, initErr(ControllerEntry, errors.New("controller factory returned nil"))
	}
	return &Handle{Config: cfg, Controller: ctrl, Strategy: b.Strategy}, nil
}

func safeBuild[T any](build func() (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return build()
}

// Handle is a constructed engine: its configuration, its controller and
// the strategy that located it. It is immutable once created.
type Handle struct {
	Config     Config
	Controller Controller
	Strategy   Strategy
}
