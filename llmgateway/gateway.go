// Package llmgateway implements the LLM Gateway: a
// provider-neutral chat interface over typed message parts, with a tool-list
// invariant that must hold regardless of which provider answers a call.
//
// Message and Part use typed parts for text/thinking/tool-use/tool-result
// rather than a single flattened string, covering the subset this system
// needs: text, tool calls, tool results, and thinking.
package llmgateway

import (
	"context"
	"encoding/json"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is a marker interface implemented by all message content blocks.
type Part interface{ isPart() }

// TextPart is plain text content.
type TextPart struct{ Text string }

func (TextPart) isPart() {}

// Text constructs a TextPart. It is the common case and is exported as a
// function so callers building a Request rarely need to name TextPart
// directly.
func Text(s string) Part { return TextPart{Text: s} }

// ThinkingPart carries provider-issued reasoning content. Callers treat it
// as opaque and display it according to their own policy.
type ThinkingPart struct {
	Text      string
	Signature string
}

func (ThinkingPart) isPart() {}

// ToolUsePart declares a tool invocation requested by the assistant.
type ToolUsePart struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (ToolUsePart) isPart() {}

// ToolResultPart carries the result of a prior tool call back to the model.
type ToolResultPart struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (ToolResultPart) isPart() {}

// Message is a single turn in a conversation.
type Message struct {
	Role  Role
	Parts []Part
}

// ToolDefinition describes one tool available to the model, mirroring
// toolspec.Spec's JSON-Schema-described shape.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolChoiceMode controls whether and how the model must use tools.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceNone     ToolChoiceMode = "none"
)

// TokenUsage reports token consumption for one call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Request captures one Gateway.Chat invocation: a provider-neutral
// request shape carrying messages, tools, tool_choice, and supports_tools.
type Request struct {
	Messages []Message

	// Tools is the curated tool list for this call, already filtered to the
	// dispatching task's action type. May be empty.
	Tools []ToolDefinition

	ToolChoice ToolChoiceMode

	// SupportsTools reports whether the target model can use tools at all.
	// When false, Tools is never attached to the outgoing provider request
	// regardless of its contents: a text-only planner must never have
	// tools auto-attached.
	SupportsTools bool

	Temperature float64
	MaxTokens   int
}

// ToolCall is one tool invocation requested by the model in a Response.
type ToolCall struct {
	ID      string
	Name    string
	Payload json.RawMessage
}

// Response is the result of a Gateway.Chat call: an optional text body
// plus any requested tool calls.
type Response struct {
	Messages  []Message
	ToolCalls []ToolCall
	Usage     TokenUsage
	StopReason string
}

// Text concatenates every TextPart across Messages, in order. It is the
// common-case accessor for callers that only care about prose (e.g. dod.FromLLM,
// crit's LLM escalation) and never inspect tool calls.
func (r Response) Text() string {
	var out []byte
	for _, m := range r.Messages {
		for _, p := range m.Parts {
			if tp, ok := p.(TextPart); ok {
				out = append(out, tp.Text...)
			}
		}
	}
	return string(out)
}

// Gateway is the provider-neutral chat interface. Provider adapters
// (anthropic, openai) and the rate-limiting middleware all implement it, so
// callers never depend on a concrete provider type.
type Gateway interface {
	Chat(ctx context.Context, req Request) (Response, error)
}
