package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrsaurabh009/team-of-ai-agents/core"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [text...]",
		Short: "Run the engine on text and print the output",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, done, err := a.newExecutor(cmd)
			if err != nil {
				return err
			}
			defer done()
			fmt.Fprintln(cmd.OutOrStdout(), e.Run(commandContext(cmd), strings.Join(args, " ")))
			return nil
		},
	}
}

func newInvokeCmd(a *app) *cobra.Command {
	var inputJSON string
	cmd := &cobra.Command{
		Use:   "invoke [text...]",
		Short: "Invoke the engine and print the result as JSON",
		Long: `Invoke the engine and print {"output", "actions", "raw"} as JSON. The
input is the joined arguments, or a JSON value given with --input-json
(a mapping contributes its "input" or "text" key).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input any = strings.Join(args, " ")
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
					return fmt.Errorf("invalid --input-json: %w", err)
				}
			}
			e, done, err := a.newExecutor(cmd)
			if err != nil {
				return err
			}
			defer done()
			return writeJSON(cmd, e.Invoke(commandContext(cmd), input).Map())
		},
	}
	cmd.Flags().StringVar(&inputJSON, "input-json", "", "JSON input value")
	return cmd
}

func newCallCmd(a *app) *cobra.Command {
	var kwInput string
	cmd := &cobra.Command{
		Use:   "call [args...]",
		Short: "Call the engine with positional or keyword input",
		Long: `Call forwards the first positional argument as text, or the --input
keyword when no argument is given, or empty text otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, done, err := a.newExecutor(cmd)
			if err != nil {
				return err
			}
			defer done()
			pos := make([]any, len(args))
			for i, s := range args {
				pos[i] = s
			}
			var kwargs map[string]any
			if cmd.Flags().Changed("input") {
				kwargs = map[string]any{"input": kwInput}
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.Call(commandContext(cmd), pos, kwargs))
			return nil
		},
	}
	cmd.Flags().StringVar(&kwInput, "input", "", "keyword input used when no argument is given")
	return cmd
}

func newStreamCmd(a *app) *cobra.Command {
	var protocol string
	cmd := &cobra.Command{
		Use:   "stream [text...]",
		Short: "Stream engine events as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, done, err := a.newExecutor(cmd)
			if err != nil {
				return err
			}
			defer done()
			ctx := commandContext(cmd)
			for ev := range e.StreamEvents(ctx, strings.Join(args, " "), protocol) {
				if err := writeJSON(cmd, ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&protocol, "protocol", core.DefaultStreamVersion, "event protocol version")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Locate the engine and print the strategy that found it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.shim(cmd)
			if err != nil {
				return err
			}
			b, err := s.Resolve(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s resolved via %s\n", s.Config().EngineName, b.Strategy)
			for _, dir := range s.Registry().SearchPath() {
				fmt.Fprintf(cmd.OutOrStdout(), "search path: %s\n", dir)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of agentshim",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "agentshim version %s\n", cmd.Root().Version)
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(v)
}
