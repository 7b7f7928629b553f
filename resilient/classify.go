package resilient

import (
	"errors"

	"codeforge.dev/agentcore/internal/toolerrors"
)

// Retryable error classification codes, set on *toolerrors.ToolError.Code
// by callers (notably llmgateway) so the Resilient Executor can decide
// whether to retry without knowing about HTTP status codes itself.
const (
	CodeNetwork      = "network"
	CodeTransport5xx = "transport_5xx"
	CodeRateLimited  = "rate_limited"
	CodeTransport4xx = "transport_4xx"
	CodeBadInput     = "bad_input"
	CodeNotFound     = "not_found"
	CodePermission   = "permission"
	CodeTimeout      = "timeout"
)

// Classifier decides whether an error from a wrapped call should be
// retried.
type Classifier func(error) bool

// DefaultClassifier retries network errors, timeouts, HTTP 5xx, and HTTP
// 429 (rate limited). It never retries other 4xx, type/value errors, or key-lookup
// errors, since those indicate caller bugs rather than transient
// environment failures.
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}
	var te *toolerrors.ToolError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Code {
	case CodeNetwork, CodeTransport5xx, CodeRateLimited, CodeTimeout:
		return true
	default:
		return false
	}
}
