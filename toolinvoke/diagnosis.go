package toolinvoke

import "strings"

// TimeoutDiagnosis classifies why a subprocess tool call failed to
// terminate within its deadline.
type TimeoutDiagnosis struct {
	IsWatchMode         bool
	IsHangingServer     bool
	IsInteractivePrompt bool
	SuggestedFix        string
}

var watchModeMarkers = []string{
	"watching for file changes",
	"press h for help",
	"press q to quit",
}

var hangingServerMarkers = []string{
	"server listening on port",
	"application started",
}

var interactivePromptMarkers = []string{
	"waiting for input",
	"press any key",
}

// Diagnose scans partial subprocess output for markers that explain why a
// command failed to terminate. Framework detection prefers command tokens
// over output contents: if the invoked command contains "vitest", the
// runner is treated as Vitest regardless of what the captured output says;
// output is consulted only when the command itself is ambiguous.
func Diagnose(command string, args []string, output string) *TimeoutDiagnosis {
	lowerOutput := strings.ToLower(output)
	d := &TimeoutDiagnosis{}

	for _, m := range watchModeMarkers {
		if strings.Contains(lowerOutput, m) {
			d.IsWatchMode = true
			break
		}
	}
	for _, m := range hangingServerMarkers {
		if strings.Contains(lowerOutput, m) {
			d.IsHangingServer = true
			break
		}
	}
	for _, m := range interactivePromptMarkers {
		if strings.Contains(lowerOutput, m) {
			d.IsInteractivePrompt = true
			break
		}
	}

	if d.IsWatchMode {
		d.SuggestedFix = suggestedFixFor(command, args)
		full := strings.ToLower(command + " " + strings.Join(args, " "))
		if !strings.Contains(full, "vitest") && !strings.Contains(full, "jest") {
			// The command names no runner; fall back to the captured output.
			d.SuggestedFix = suggestedFixFor(lowerOutput, nil)
		}
	}
	return d
}

// suggestedFixFor proposes a concrete fix for a watch-mode test command,
// preferring the command's own tokens to decide which runner is in play.
func suggestedFixFor(command string, args []string) string {
	full := strings.ToLower(command + " " + strings.Join(args, " "))
	switch {
	case strings.Contains(full, "vitest"):
		return `change test script from "vitest" to "vitest run"`
	case strings.Contains(full, "jest") && strings.Contains(full, "--watch"):
		return `remove the --watch flag from the jest invocation`
	default:
		return "change the test script to its non-watch / single-run form"
	}
}

// TestRunner is the closed set of test runners the Test Executor selects
// between.
type TestRunner string

const (
	RunnerNPM    TestRunner = "npm_test"
	RunnerVitest TestRunner = "vitest_run"
	RunnerJest   TestRunner = "jest"
	RunnerPytest TestRunner = "pytest"
	RunnerGoTest TestRunner = "go_test"
	RunnerCargo  TestRunner = "cargo_test"
)

// Command returns the runner's command and arguments.
func (r TestRunner) Command() (string, []string) {
	switch r {
	case RunnerVitest:
		return "npx", []string{"vitest", "run"}
	case RunnerJest:
		return "npx", []string{"jest"}
	case RunnerNPM:
		return "npm", []string{"test"}
	case RunnerPytest:
		return "pytest", nil
	case RunnerGoTest:
		return "go", []string{"test", "./..."}
	case RunnerCargo:
		return "cargo", []string{"test"}
	default:
		return "pytest", nil
	}
}

// InterpretExitCode reports pass/fail per the runner's own convention:
// Python-style runners use 0=passed, 1=failed, and
// 4|5 or "no tests ran" in output means no tests were found (reported as
// failure, never success). Other runners are pass-iff-zero.
func (r TestRunner) InterpretExitCode(rc int, output string) (passed bool, noTestsFound bool) {
	switch r {
	case RunnerPytest:
		switch rc {
		case 0:
			return true, false
		case 4, 5:
			return false, true
		default:
			if strings.Contains(strings.ToLower(output), "no tests ran") {
				return false, true
			}
			return false, false
		}
	default:
		return rc == 0, false
	}
}
