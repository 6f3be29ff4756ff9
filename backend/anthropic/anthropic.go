// Package anthropic provides an in-process engine backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// APIKeyEnv is the environment variable consulted when no key is configured.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// ErrMissingAPIKey is returned by the config factory when no credential is
// available.
var ErrMissingAPIKey = errors.New("anthropic: " + APIKeyEnv + " is not set")

// Options configures the Anthropic engine (temperature, model id, max
// tokens, API key).
type Options struct {
	// Model overrides Settings.Model. Without it, Settings.Model is used
	// only when it names a Claude model.
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string

	Client         *anthropic.Client
	RequestOptions []option.RequestOption
}

// Config is the engine configuration.
type Config struct {
	backend.BasicConfig
	Options Options
}

// NewConfigFactory returns the engine's config entry point.
func NewConfigFactory(optFns ...func(o *Options)) backend.ConfigFactory {
	opts := Options{
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return func(s backend.Settings) (backend.Config, error) {
		if opts.Client == nil && opts.APIKey == "" && os.Getenv(APIKeyEnv) == "" {
			return nil, ErrMissingAPIKey
		}
		switch {
		case opts.Model != "":
			s.Model = opts.Model
		case !strings.HasPrefix(s.Model, "claude"):
			s.Model = string(anthropic.ModelClaude3_5Sonnet20241022)
		}
		return &Config{BasicConfig: backend.BasicConfig{S: s}, Options: opts}, nil
	}
}

// NewController builds a controller from an engine configuration.
func NewController(c backend.Config) (backend.Controller, error) {
	cfg, ok := c.(*Config)
	if !ok {
		return nil, fmt.Errorf("anthropic: unexpected config type %T", c)
	}
	client := cfg.Options.Client
	if client == nil {
		var clientOpts []option.RequestOption
		if cfg.Options.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.Options.APIKey))
		}
		if cfg.Options.BaseURL != "" {
			clientOpts = append(clientOpts, option.WithBaseURL(cfg.Options.BaseURL))
		}
		clientOpts = append(clientOpts, cfg.Options.RequestOptions...)
		c := anthropic.NewClient(clientOpts...)
		client = &c
	}
	return &Controller{client: client, cfg: cfg}, nil
}

// Install binds the engine's entry points under pkg in reg.
func Install(reg *backend.Registry, pkg string, optFns ...func(o *Options)) bool {
	return backend.Install(reg, pkg, NewConfigFactory(optFns...), NewController)
}

// Controller sends single-turn message requests.
type Controller struct {
	client *anthropic.Client
	cfg    *Config
}

// Run implements backend.Controller.
func (c *Controller) Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
	s := c.cfg.Settings()
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.Model),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(text))},
		MaxTokens:   c.cfg.Options.MaxTokens,
		Temperature: anthropic.Float(c.cfg.Options.Temperature),
	}
	if s.Prompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.Prompt}}
	}
	if defs := buildTools(tools); len(defs) > 0 {
		params.Tools = defs
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var out strings.Builder
	calls := []map[string]any{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.WriteString(block.AsText().Text)
		case "tool_use":
			tu := block.AsToolUse()
			args := ""
			if tu.Input != nil {
				if b, err := json.Marshal(tu.Input); err == nil {
					args = string(b)
				}
			}
			calls = append(calls, map[string]any{"id": tu.ID, "name": tu.Name, "arguments": args})
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}
	return map[string]any{
		"output":        out.String(),
		"finish_reason": finishReason,
		"tool_calls":    calls,
		"model":         string(resp.Model),
		"usage": map[string]any{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}, nil
}

// buildTools converts descriptors to Anthropic tools with an open object
// schema.
func buildTools(tools []tool.Descriptor) []anthropic.ToolUnionParam {
	var defs []anthropic.ToolUnionParam
	for _, d := range tools {
		if d.Name == "" {
			continue
		}
		schema := anthropic.ToolInputSchemaParam{
			Type:       constant.Object("object"),
			Properties: map[string]any{},
		}
		u := anthropic.ToolUnionParamOfTool(schema, d.Name)
		if u.OfTool != nil && d.Description != "" {
			u.OfTool.Description = anthropic.String(d.Description)
		}
		defs = append(defs, u)
	}
	return defs
}
