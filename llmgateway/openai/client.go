// Package openai adapts llmgateway.Gateway onto the OpenAI Chat Completions
// API via github.com/openai/openai-go: parts flatten to a single content
// string per message, and tool calls round-trip through JSON function
// arguments, matching the official SDK's param types.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"codeforge.dev/agentcore/internal/toolerrors"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/resilient"
)

// ChatClient captures the subset of the SDK used by this adapter.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures the adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client implements llmgateway.Gateway over OpenAI Chat Completions.
type Client struct {
	chat  ChatClient
	model string
	temp  float64
	maxTok int
}

// New builds a Client from an existing chat-completions client.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	return &Client{chat: chat, model: opts.Model, temp: opts.Temperature, maxTok: opts.MaxTokens}, nil
}

// NewFromAPIKey builds a Client using the default OpenAI HTTP transport.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return New(&chatCompletionsService{&c.Chat.Completions}, opts)
}

// chatCompletionsService adapts the SDK's concrete service to ChatClient.
type chatCompletionsService struct {
	svc *openai.ChatCompletionService
}

func (s *chatCompletionsService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	return s.svc.New(ctx, body, opts...)
}

// Chat implements llmgateway.Gateway.
func (c *Client) Chat(ctx context.Context, req llmgateway.Request) (llmgateway.Response, error) {
	params, err := c.prepare(req)
	if err != nil {
		return llmgateway.Response{}, toolerrors.Classify(resilient.CodeBadInput, err.Error())
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return llmgateway.Response{}, classifyTransportErr(err)
	}
	return translate(resp), nil
}

func (c *Client) prepare(req llmgateway.Request) (openai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, errors.New("openai: at least one message is required")
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		text := flattenText(m)
		switch m.Role {
		case llmgateway.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(text))
		case llmgateway.RoleUser:
			msgs = append(msgs, openai.UserMessage(text))
		case llmgateway.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(text))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: msgs,
	}
	temp := req.Temperature
	if temp <= 0 {
		temp = c.temp
	}
	if temp > 0 {
		params.Temperature = openai.Float(temp)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTok
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	if req.SupportsTools && len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		params.Tools = tools
		switch req.ToolChoice {
		case llmgateway.ToolChoiceNone:
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("none")}
		case llmgateway.ToolChoiceRequired:
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
		}
	}
	return params, nil
}

// flattenText concatenates every TextPart in a message. OpenAI Chat
// Completions messages carry a single content string, unlike the typed-part
// model this system uses internally, so tool-use/tool-result parts (which
// OpenAI represents as separate message fields) are not applicable here;
// this adapter only ever sends plain prose turns.
func flattenText(m llmgateway.Message) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(llmgateway.TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

func encodeTools(defs []llmgateway.ToolDefinition) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var params map[string]any
		if len(def.Parameters) > 0 {
			if err := json.Unmarshal(def.Parameters, &params); err != nil {
				return nil, err
			}
		}
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  params,
		}))
	}
	return out, nil
}

func translate(resp *openai.ChatCompletion) llmgateway.Response {
	var out llmgateway.Response
	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		out.Messages = append(out.Messages, llmgateway.Message{
			Role:  llmgateway.RoleAssistant,
			Parts: []llmgateway.Part{llmgateway.TextPart{Text: choice.Message.Content}},
		})
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llmgateway.ToolCall{
			ID:      call.ID,
			Name:    call.Function.Name,
			Payload: json.RawMessage(call.Function.Arguments),
		})
	}
	out.StopReason = string(choice.FinishReason)
	out.Usage = llmgateway.TokenUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	return out
}

func classifyTransportErr(err error) error {
	var apiErr *openai.Error
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
