package crit

import (
	"fmt"
	"strings"

	"codeforge.dev/agentcore/task"
)

// containsFold reports whether substr occurs in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// actionSignature mirrors the Orchestrator's repeated-action guardrail
// signature: action type plus target files, stable enough to detect a
// task that is circling back on ground an earlier task already covered.
func actionSignature(t *task.Task) string {
	return string(t.ActionType) + ":" + strings.Join(t.TargetFiles, ",")
}

// socraticPrompt renders a heuristic result into a question the Gateway
// can sharpen or contradict.
func socraticPrompt(gateName string, heuristic GateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gate: %s\nProvisional verdict: %s (confidence %.2f)\n", gateName, heuristic.Verdict, heuristic.Confidence)
	if len(heuristic.Concerns) > 0 {
		b.WriteString("Concerns already raised:\n")
		for _, c := range heuristic.Concerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("Is this verdict correct? Identify anything the heuristic missed.")
	return b.String()
}

// lastToolEventNamed returns the most recent tool event whose tool name
// matches, scanning from the end since a task may retry the same tool
// several times and only the latest attempt reflects current state.
func lastToolEventNamed(events []task.ToolEvent, name string) (task.ToolEvent, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].ToolName == name {
			return events[i], true
		}
	}
	return task.ToolEvent{}, false
}

var testsPassClaimMarkers = []string{"tests pass", "all tests passing", "all tests pass", "tests are passing"}

func claimsTestsPass(claim string) bool {
	for _, m := range testsPassClaimMarkers {
		if containsFold(claim, m) {
			return true
		}
	}
	return false
}
