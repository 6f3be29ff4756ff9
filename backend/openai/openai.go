// Package openai provides an in-process engine backed by the OpenAI Chat
// Completions API (including function/tool definitions). The engine sends
// the configured prompt as the system message and the input text as the
// user message, and returns the first choice as a raw mapping.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mrsaurabh009/team-of-ai-agents/backend"
	"github.com/mrsaurabh009/team-of-ai-agents/tool"
)

// APIKeyEnv is the environment variable consulted when no key is configured.
const APIKeyEnv = "OPENAI_API_KEY"

// ErrMissingAPIKey is returned by the config factory when no credential is
// available.
var ErrMissingAPIKey = errors.New("openai: " + APIKeyEnv + " is not set")

// Options configure the OpenAI engine.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	// Model overrides Settings.Model when set.
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string

	// Client replaces the client built from the fields above.
	Client *openai.Client

	// RequestOptions are appended when the client is built.
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
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return func(s backend.Settings) (backend.Config, error) {
		if opts.Client == nil && opts.APIKey == "" && os.Getenv(APIKeyEnv) == "" {
			return nil, ErrMissingAPIKey
		}
		if opts.Model != "" {
			s.Model = opts.Model
		}
		if s.Model == "" {
			s.Model = openai.ChatModelGPT4oMini
		}
		return &Config{BasicConfig: backend.BasicConfig{S: s}, Options: opts}, nil
	}
}

// NewController builds a controller from an engine configuration.
func NewController(c backend.Config) (backend.Controller, error) {
	cfg, ok := c.(*Config)
	if !ok {
		return nil, fmt.Errorf("openai: unexpected config type %T", c)
	}
	client := cfg.Options.Client
	if client == nil {
		var reqOpts []option.RequestOption
		if cfg.Options.APIKey != "" {
			reqOpts = append(reqOpts, option.WithAPIKey(cfg.Options.APIKey))
		}
		if cfg.Options.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(cfg.Options.BaseURL))
		}
		reqOpts = append(reqOpts, cfg.Options.RequestOptions...)
		c := openai.NewClient(reqOpts...)
		client = &c
	}
	return &Controller{client: client, cfg: cfg}, nil
}

// Install binds the engine's entry points under pkg in reg.
func Install(reg *backend.Registry, pkg string, optFns ...func(o *Options)) bool {
	return backend.Install(reg, pkg, NewConfigFactory(optFns...), NewController)
}

// Controller runs single-turn chat completions.
type Controller struct {
	client *openai.Client
	cfg    *Config
}

// Run implements backend.Controller.
func (c *Controller) Run(ctx context.Context, text string, tools []tool.Descriptor) (any, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(text, tools))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	ch0 := resp.Choices[0]
	calls := make([]map[string]any, 0, len(ch0.Message.ToolCalls))
	for _, tc := range ch0.Message.ToolCalls {
		calls = append(calls, map[string]any{
			"id":        tc.ID,
			"name":      tc.Function.Name,
			"arguments": tc.Function.Arguments,
		})
	}
	return map[string]any{
		"output":        ch0.Message.Content,
		"finish_reason": ch0.FinishReason,
		"tool_calls":    calls,
		"model":         resp.Model,
		"usage": map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}

// buildParams assembles the request parameters including tool definitions.
func (c *Controller) buildParams(text string, tools []tool.Descriptor) openai.ChatCompletionNewParams {
	s := c.cfg.Settings()
	var messages []openai.ChatCompletionMessageParamUnion
	if s.Prompt != "" {
		messages = append(messages, openai.SystemMessage(s.Prompt))
	}
	messages = append(messages, openai.UserMessage(text))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               s.Model,
		Temperature:         openai.Float(c.cfg.Options.Temperature),
		MaxCompletionTokens: openai.Int(c.cfg.Options.MaxCompletionTokens),
	}
	if len(tools) == 0 {
		return params
	}
	defs := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, d := range tools {
		if d.Name == "" {
			continue
		}
		defs = append(defs, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		})
	}
	if len(defs) > 0 {
		params.Tools = defs
	}
	return params
}
