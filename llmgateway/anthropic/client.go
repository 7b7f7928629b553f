// Package anthropic adapts llmgateway.Gateway onto the Anthropic Claude
// Messages API via github.com/anthropics/anthropic-sdk-go: block-type
// translation (text/tool_use/tool_result), tool-name sanitization
// (Anthropic restricts tool names to a narrower character set than the
// provider-agnostic tool names this system accepts), and transport-error-to-sentinel
// mapping, routed through toolerrors.Classify so the Resilient Executor
// can decide whether to retry without importing this package.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"codeforge.dev/agentcore/internal/toolerrors"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/resilient"
)

// MessagesClient captures the subset of the SDK client this adapter calls,
// so tests can substitute a mock.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the adapter.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client implements llmgateway.Gateway over Anthropic Claude Messages.
type Client struct {
	msg   MessagesClient
	model string
	maxTok int
	temp  float64
}

// New builds a Client from an existing Anthropic Messages client.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = 4096
	}
	return &Client{msg: msg, model: opts.Model, maxTok: maxTok, temp: opts.Temperature}, nil
}

// NewFromAPIKey builds a Client using the default Anthropic HTTP transport.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, opts)
}

// Chat implements llmgateway.Gateway.
func (c *Client) Chat(ctx context.Context, req llmgateway.Request) (llmgateway.Response, error) {
	params, sanToCanon, err := c.prepare(req)
	if err != nil {
		return llmgateway.Response{}, toolerrors.Classify(resilient.CodeBadInput, err.Error())
	}
	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return llmgateway.Response{}, classifyTransportErr(err)
	}
	return translate(msg, sanToCanon), nil
}

func (c *Client) prepare(req llmgateway.Request) (sdk.MessageNewParams, map[string]string, error) {
	if len(req.Messages) == 0 {
		return sdk.MessageNewParams{}, nil, errors.New("anthropic: at least one message is required")
	}
	msgs, system, err := encodeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, nil, err
	}
	if len(msgs) == 0 {
		return sdk.MessageNewParams{}, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTok
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.temp
	}
	if temp > 0 {
		params.Temperature = sdk.Float(temp)
	}

	var sanToCanon map[string]string
	if req.SupportsTools && len(req.Tools) > 0 {
		tools, s2c, err := encodeTools(req.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, nil, err
		}
		params.Tools = tools
		sanToCanon = s2c
		params.ToolChoice = encodeToolChoice(req.ToolChoice)
	}
	return params, sanToCanon, nil
}

func encodeMessages(msgs []llmgateway.Message) ([]sdk.MessageParam, string, error) {
	var system strings.Builder
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llmgateway.RoleSystem {
			for _, p := range m.Parts {
				if tp, ok := p.(llmgateway.TextPart); ok {
					if system.Len() > 0 {
						system.WriteString("\n\n")
					}
					system.WriteString(tp.Text)
				}
			}
			continue
		}
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch v := part.(type) {
			case llmgateway.TextPart:
				if v.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(v.Text))
				}
			case llmgateway.ToolUsePart:
				blocks = append(blocks, sdk.NewToolUseBlock(v.ID, v.Input, sanitizeToolName(v.Name)))
			case llmgateway.ToolResultPart:
				blocks = append(blocks, sdk.NewToolResultBlock(v.ToolUseID, v.Content, v.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case llmgateway.RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case llmgateway.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, "", fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}
	return out, system.String(), nil
}

func encodeTools(defs []llmgateway.ToolDefinition) ([]sdk.ToolUnionParam, map[string]string, error) {
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	sanToCanon := make(map[string]string, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		sanitized := sanitizeToolName(def.Name)
		sanToCanon[sanitized] = def.Name
		var schemaFields map[string]any
		if len(def.Parameters) > 0 {
			if err := json.Unmarshal(def.Parameters, &schemaFields); err != nil {
				return nil, nil, fmt.Errorf("anthropic: tool %q schema: %w", def.Name, err)
			}
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaFields}, sanitized)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, sanToCanon, nil
}

func encodeToolChoice(mode llmgateway.ToolChoiceMode) sdk.ToolChoiceUnionParam {
	switch mode {
	case llmgateway.ToolChoiceNone:
		none := sdk.NewToolChoiceNoneParam()
		return sdk.ToolChoiceUnionParam{OfNone: &none}
	case llmgateway.ToolChoiceRequired:
		return sdk.ToolChoiceUnionParam{OfAny: &sdk.ToolChoiceAnyParam{}}
	default:
		return sdk.ToolChoiceUnionParam{}
	}
}

// sanitizeToolName replaces any character Anthropic's tool-name validation
// rejects with '_'. Canonical names in this system are short lowercase
// identifiers (e.g. "run_tests") that already satisfy the constraint in
// practice; this exists for defense against future additions.
func sanitizeToolName(in string) string {
	out := make([]rune, 0, len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func translate(msg *sdk.Message, sanToCanon map[string]string) llmgateway.Response {
	resp := llmgateway.Response{StopReason: string(msg.StopReason)}
	var assistant llmgateway.Message
	assistant.Role = llmgateway.RoleAssistant
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				assistant.Parts = append(assistant.Parts, llmgateway.TextPart{Text: block.Text})
			}
		case "tool_use":
			name := block.Name
			if canonical, ok := sanToCanon[name]; ok {
				name = canonical
			}
			resp.ToolCalls = append(resp.ToolCalls, llmgateway.ToolCall{
				ID:      block.ID,
				Name:    name,
				Payload: block.Input,
			})
		}
	}
	if len(assistant.Parts) > 0 {
		resp.Messages = append(resp.Messages, assistant)
	}
	u := msg.Usage
	resp.Usage = llmgateway.TokenUsage{
		InputTokens:  int(u.InputTokens),
		OutputTokens: int(u.OutputTokens),
	}
	return resp
}

// classifyTransportErr maps an anthropic-sdk-go transport error onto the
// Resilient Executor's retry classification codes (retry on
// network/5xx/429 only).
func classifyTransportErr(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return toolerrors.Classify(resilient.CodeRateLimited, err.Error())
		case apiErr.StatusCode >= 500:
			return toolerrors.Classify(resilient.CodeTransport5xx, err.Error())
		case apiErr.StatusCode >= 400:
			return toolerrors.Classify(resilient.CodeTransport4xx, err.Error())
		}
	}
	return toolerrors.Classify(resilient.CodeNetwork, err.Error())
}
