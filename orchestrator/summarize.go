package orchestrator

import "context"

// maybeSummarize applies the conversation-budget rule: once the
// running frame passes the default message threshold, collapse everything
// but the system message and the most recent messages into one synthetic
// summary message.
func (l *Loop) maybeSummarize(ctx context.Context) error {
	if !l.frame.NeedsSummarization() {
		return nil
	}
	return l.frame.Summarize(ctx, l.Gateway)
}
