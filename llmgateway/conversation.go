package llmgateway

import "context"

// ConversationFrame is the ordered, role-tagged message history passed to
// the Gateway on any given call. It lives in this package rather than
// runctx: agents build a Frame immediately before calling Gateway.Chat, and
// the Orchestrator's Loop keeps its own Frame for the what's-next calls.
type ConversationFrame struct {
	System   string
	Messages []Message
}

// NewFrame starts a frame with an optional system message.
func NewFrame(system string) *ConversationFrame {
	return &ConversationFrame{System: system}
}

// Append adds a message to the frame in conversation order.
func (f *ConversationFrame) Append(role Role, parts ...Part) {
	f.Messages = append(f.Messages, Message{Role: role, Parts: parts})
}

// Len reports the number of non-system messages currently held.
func (f *ConversationFrame) Len() int { return len(f.Messages) }

// ToRequest renders the frame plus the supplied tool configuration into a
// Gateway Request.
func (f *ConversationFrame) ToRequest(tools []ToolDefinition, choice ToolChoiceMode, supportsTools bool) Request {
	msgs := make([]Message, 0, len(f.Messages)+1)
	if f.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Parts: []Part{Text(f.System)}})
	}
	msgs = append(msgs, f.Messages...)
	return Request{Messages: msgs, Tools: tools, ToolChoice: choice, SupportsTools: supportsTools}
}

// budgetDefaultThreshold is the default message-count trigger for
// summarization (the default 30-message/token threshold).
const budgetDefaultThreshold = 30

// preserveLastN is the number of most recent messages kept verbatim when a
// frame is summarized; the rest collapse into one assistant-role summary
// message (preserve the system message plus the last 20 messages).
const preserveLastN = 20

// NeedsSummarization reports whether the frame has grown past the default
// budget threshold.
func (f *ConversationFrame) NeedsSummarization() bool {
	return len(f.Messages) > budgetDefaultThreshold
}

// Summarize asks gw to compress every message except the last preserveLastN
// into a single prose summary, then replaces the collapsed range with one
// assistant-role TextPart message carrying that summary. The system
// message and the most recent messages are preserved verbatim. Callers
// should treat a non-nil error as "summarization failed, frame left
// unchanged" and decide for themselves whether to proceed uncompressed.
func (f *ConversationFrame) Summarize(ctx context.Context, gw Gateway) error {
	if len(f.Messages) <= preserveLastN {
		return nil
	}
	cut := len(f.Messages) - preserveLastN
	toSummarize := f.Messages[:cut]
	kept := f.Messages[cut:]

	req := Request{
		Messages: append([]Message{
			{Role: RoleSystem, Parts: []Part{Text(summarizePrompt)}},
		}, toSummarize...),
		SupportsTools: false,
	}
	resp, err := gw.Chat(ctx, req)
	if err != nil {
		return err
	}
	summary := resp.Text()
	if summary == "" {
		summary = "[earlier conversation turns omitted]"
	}
	newMessages := make([]Message, 0, len(kept)+1)
	newMessages = append(newMessages, Message{Role: RoleAssistant, Parts: []Part{Text(summary)}})
	newMessages = append(newMessages, kept...)
	f.Messages = newMessages
	return nil
}

const summarizePrompt = `Summarize the conversation so far into a short paragraph ` +
	`a teammate could use to pick up the task cold: what was tried, what ` +
	`succeeded or failed, and what state the workspace is in now. Target a ` +
	`60-80% reduction in length versus the original messages. Do not include ` +
	`tool call IDs or raw tool output verbatim.`
