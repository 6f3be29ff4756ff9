package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// Command describes how to spawn an out-of-process engine.
type Command struct {
	Path    string
	Args    []string
	Env     map[string]string
	WorkDir string
}

// SubprocessRequest is the JSON document written to the engine's stdin.
type SubprocessRequest struct {
	Text   string            `json:"text"`
	Tools  []tool.Descriptor `json:"tools"`
	Model  string            `json:"model"`
	Prompt string            `json:"prompt,omitempty"`
}

// Subprocess is a Controller that runs the engine once per call. A JSON
// object printed on stdout becomes the raw mapping result; any other output
// is returned as a trimmed string.
type Subprocess struct {
	cmd      Command
	settings Settings
}

// NewSubprocess creates a subprocess controller.
func NewSubprocess(cmd Command, settings Settings) *Subprocess {
	return &Subprocess{cmd: cmd, settings: settings}
}

// Run implements Controller.
func (s *Subprocess) Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
	if tools == nil {
		tools = []tool.Descriptor{}
	}
	payload, err := json.Marshal(SubprocessRequest{
		Text:   text,
		Tools:  tools,
		Model:  s.settings.Model,
		Prompt: s.settings.Prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode engine request: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.cmd.Path, s.cmd.Args...)
	cmd.Dir = s.cmd.WorkDir
	cmd.Env = mergeEnv(os.Environ(), s.cmd.Env)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("engine %s: %w: %s", s.cmd.Path, err, msg)
		}
		return nil, fmt.Errorf("engine %s: %w", s.cmd.Path, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) > 0 && out[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(out, &m); err == nil {
			return m, nil
		}
	}
	return string(out), nil
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := append([]string{}, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// InstallCommand binds entry points under pkg that run the engine as cmd.
func InstallCommand(reg *Registry, pkg string, cmd Command) bool {
	cf := ConfigFactory(func(s Settings) (Config, error) { return BasicConfig{S: s}, nil })
	kf := ControllerFactory(func(c Config) (Controller, error) {
		return NewSubprocess(cmd, c.Settings()), nil
	})
	return Install(reg, pkg, cf, kf)
}
