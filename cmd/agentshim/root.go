package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	agentshim "github.com/mrsaurabh009/team-of-ai-agents"
	"github.com/mrsaurabh009/team-of-ai-agents/config"
	"github.com/mrsaurabh009/team-of-ai-agents/executor"
	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/metrics"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	promReg *prometheus.Registry
	logger  *logging.ShimLogger
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"engine":     "engine",
	"package":    "package",
	"root":       "root",
	"model":      "model",
	"prompt":     "prompt",
	"tool":       "tools",
	"log-level":  "log.level",
	"log-format": "log.format",
	"metrics":    "metrics.enabled",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "agentshim",
		Short: "Drive an agent engine through the agent-executor contract",
		Long: `agentshim locates an agent engine (linked in, on PATH, vendored under
external/, or registered under its real name) and exposes it through four
operations: run, invoke, call and stream. Backend failures never abort a
command; they are reported as an error-marker output or an on_error event.`,
		// SilenceUsage is set to true to prevent printing usage message on errors
		// handled by us (e.g. resolution failures)
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.dumpMetrics(cmd.ErrOrStderr())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./agentshim.yaml)")
	pf.StringP("engine", "e", "", "in-process engine: echo, openai, anthropic or none")
	pf.String("package", "", "package name the engine entry points are expected under")
	pf.String("root", "", "directory holding external/ engine trees")
	pf.StringP("model", "m", "", "model identifier passed to the engine")
	pf.String("prompt", "", "system prompt passed to the engine")
	pf.StringSlice("tool", nil, `tool descriptor "name" or "name:description" (repeatable)`)
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	pf.Bool("metrics", false, "print collected metrics to stderr after the command")
	for flag, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(
		newRunCmd(a),
		newInvokeCmd(a),
		newCallCmd(a),
		newStreamCmd(a),
		newResolveCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// shim loads the configuration and assembles a Shim.
func (a *app) shim(cmd *cobra.Command) (*agentshim.Shim, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return nil, err
	}
	lc := cfg.LoggerConfig("cli")
	lc.Output = cmd.ErrOrStderr()
	a.logger = logging.NewLogger(lc)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		a.promReg = prometheus.NewRegistry()
		m = metrics.MustNew(a.promReg)
	}
	return agentshim.New(cfg, func(o *agentshim.Options) {
		o.Logger = a.logger
		o.Metrics = m
	})
}

// newExecutor builds an executor for the command and returns a function that
// logs the command's duration.
func (a *app) newExecutor(cmd *cobra.Command) (*executor.Executor, func(), error) {
	s, err := a.shim(cmd)
	if err != nil {
		return nil, nil, err
	}
	done := a.logger.StartTimer(cmd.Name())
	e, err := s.Executor(commandContext(cmd))
	if err != nil {
		return nil, nil, err
	}
	return e, done, nil
}

func (a *app) dumpMetrics(w io.Writer) error {
	if a.promReg == nil {
		return nil
	}
	families, err := a.promReg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
