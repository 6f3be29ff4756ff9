package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsaurabh009/team-of-ai-agents/logging"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "agentshim.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	c, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, EngineNone, c.Engine)
	assert.Equal(t, "xagent", c.Package)
	assert.Equal(t, "XAgent", c.EngineName)
	assert.Equal(t, "gpt-4", c.Model)
	assert.Equal(t, "You are XAgent integrated into L3AGI.", c.Prompt)
	assert.Equal(t, "XAGENT_PATH", c.SearchPathEnv)
	assert.Empty(t, c.Root)
	assert.Equal(t, "info", c.Log.Level)
	assert.Empty(t, c.Tools)
	assert.InDelta(t, 0.7, c.OpenAI.Temperature, 1e-9)
	assert.Equal(t, int64(4096), c.Anthropic.MaxTokens)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeFile(t, `
engine: echo
model: gpt-4o
tools:
  - "search: web search"
  - calc
log:
  level: debug
  format: json
openai:
  base_url: http://localhost:8080/v1
`)
	c, err := Load(nil, p)
	require.NoError(t, err)

	assert.Equal(t, EngineEcho, c.Engine)
	assert.Equal(t, "gpt-4o", c.Model)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "http://localhost:8080/v1", c.OpenAI.BaseURL)
	assert.Equal(t, []any{tool.NewStatic("search", "web search"), tool.NewStatic("calc", "")}, c.ToolValues())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "engine: echo\nmodel: from-file\n")
	t.Setenv("AGENTSHIM_MODEL", "from-env")
	t.Setenv("AGENTSHIM_LOG_LEVEL", "warn")

	c, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Model)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, EngineEcho, c.Engine)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(nil, writeFile(t, "engine: gemini\n"))
	assert.ErrorContains(t, err, "invalid engine")

	_, err = Load(nil, writeFile(t, "log:\n  format: xml\n"))
	assert.ErrorContains(t, err, "invalid log format")
}

func TestLoggerConfig(t *testing.T) {
	c := &Config{Log: LogConfig{Level: "debug", Format: "json"}}
	lc := c.LoggerConfig("executor")
	assert.Equal(t, logging.LogLevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "executor", lc.Component)
}

// chdir is the Go 1.21 equivalent of testing.T.Chdir (added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
