package dod

import (
	"encoding/json"
	"strings"

	"codeforge.dev/agentcore/task"
)

type llmDoD struct {
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	ValidationStages   []string `json:"validation_stages"`
}

// parseDoD extracts a JSON object from free text and converts it into a
// task.DoD. It tolerates surrounding prose by scanning for the first '{' and
// the matching final '}'.
func parseDoD(text string) (task.DoD, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return task.DoD{}, false
	}
	var raw llmDoD
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return task.DoD{}, false
	}
	d := task.DoD{AcceptanceCriteria: raw.AcceptanceCriteria}
	for _, s := range raw.ValidationStages {
		switch task.ValidationStage(s) {
		case task.StageSyntax, task.StageIntegration, task.StageUnit:
			d.ValidationStages = append(d.ValidationStages, task.ValidationStage(s))
		}
	}
	return d, true
}
