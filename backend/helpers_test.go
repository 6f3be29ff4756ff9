package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

// newTestResolver isolates a resolver from the host PATH and environment.
func newTestResolver(reg *Registry, root string, optFns ...func(o *ResolverOptions)) *Resolver {
	fns := append([]func(o *ResolverOptions){func(o *ResolverOptions) {
		o.Root = root
		o.LookPath = func(string) (string, error) { return "", errors.New("not found") }
		o.Getenv = func(string) string { return "" }
	}}, optFns...)
	return NewResolver(reg, fns...)
}

func staticFactories(output string) (ConfigFactory, ControllerFactory) {
	cf := func(s Settings) (Config, error) { return BasicConfig{S: s}, nil }
	kf := func(Config) (Controller, error) {
		return ControllerFunc(func(context.Context, string, []tool.Descriptor) (any, error) {
			return map[string]any{"output": output}, nil
		}), nil
	}
	return cf, kf
}
