package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

func TestSubprocess_RequestRoundTrip(t *testing.T) {
	requireShell(t)
	// cat echoes the JSON request back, which decodes as a mapping.
	s := NewSubprocess(Command{Path: "cat"}, Settings{Model: "gpt-4", Prompt: "be brief"})

	out, err := s.Run(context.Background(), "Hello", []tool.Descriptor{{Name: "search", Description: "web"}})
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hello", m["text"])
	assert.Equal(t, "gpt-4", m["model"])
	assert.Equal(t, "be brief", m["prompt"])
	assert.Equal(t, []any{map[string]any{"name": "search", "description": "web"}}, m["tools"])
}

func TestSubprocess_NilToolsEncodeAsEmptyList(t *testing.T) {
	requireShell(t)
	s := NewSubprocess(Command{Path: "cat"}, Settings{})

	out, err := s.Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, out.(map[string]any)["tools"])
}

func TestSubprocess_PlainTextAndEnv(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	exe := writeScript(t, dir, "engine", `printf '  %s says hi\n' "$ENGINE_NAME"`)
	s := NewSubprocess(Command{Path: exe, Env: map[string]string{"ENGINE_NAME": "xagent"}, WorkDir: dir}, Settings{})

	out, err := s.Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "xagent says hi", out)
}

func TestSubprocess_MalformedJSONIsText(t *testing.T) {
	requireShell(t)
	exe := writeScript(t, t.TempDir(), "engine", `echo '{not json'`)

	out, err := NewSubprocess(Command{Path: exe}, Settings{}).Run(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "{not json", out)
}

func TestSubprocess_FailureCarriesStderr(t *testing.T) {
	requireShell(t)
	exe := writeScript(t, t.TempDir(), "engine", `echo "model not available" >&2; exit 3`)

	_, err := NewSubprocess(Command{Path: exe}, Settings{}).Run(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not available")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := "command: ./bin/engine\nargs: [\"--json\"]\nenv:\n  XAGENT_LOG: quiet\nworkdir: work\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))

	cmd, err := LoadManifest(dir, "xagent")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "bin", "engine"), cmd.Path)
	assert.Equal(t, []string{"--json"}, cmd.Args)
	assert.Equal(t, map[string]string{"XAGENT_LOG": "quiet"}, cmd.Env)
	assert.Equal(t, filepath.Join(dir, "work"), cmd.WorkDir)
}

func TestLoadManifest_BareCommandStaysOnPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("command: python3\nargs: [run.py]\n"), 0o644))

	cmd, err := LoadManifest(dir, "xagent")
	require.NoError(t, err)
	assert.Equal(t, "python3", cmd.Path)
	assert.Equal(t, dir, cmd.WorkDir)
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadManifest(dir, "xagent")
	assert.ErrorContains(t, err, "no engine.yaml")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("args: [x]\n"), 0o644))
	_, err = LoadManifest(dir, "xagent")
	assert.ErrorContains(t, err, "command is required")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("command: [unterminated\n"), 0o644))
	_, err = LoadManifest(dir, "xagent")
	assert.ErrorContains(t, err, "parse")
}
