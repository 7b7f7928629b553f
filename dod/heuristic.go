// Package dod generates a Definition of Done for a Task, either from a
// fixed heuristic keyed on action type and target file extension, or by
// asking an LLM. Config.DoDMode is loaded and validated, but the
// Orchestrator's Loop does not read it: the Loop always uses Heuristic, and
// FromLLM is called only by code that invokes it directly.
package dod

import (
	"context"
	"path/filepath"
	"strings"

	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/task"
)

// Mode selects which DoD generation strategy to use.
type Mode string

const (
	ModeHeuristic Mode = "heuristic"
	ModeLLM       Mode = "llm"
)

// Heuristic builds a DoD from fixed rules over action type and the
// extensions of the task's target files. It never calls an LLM and is the
// default mode.
func Heuristic(t *task.Task) task.DoD {
	d := task.DoD{}
	switch {
	case t.ActionType.Mutating():
		for _, f := range t.TargetFiles {
			d.Deliverables = append(d.Deliverables, task.Deliverable{
				Kind: fileDeliverableKind(t.ActionType),
				Path: f,
			})
		}
		d.Deliverables = append(d.Deliverables, task.Deliverable{Kind: task.DeliverableSyntaxValid})
		d.ValidationStages = append(d.ValidationStages, task.StageSyntax)
		if needsTests(t.TargetFiles) {
			d.Deliverables = append(d.Deliverables, task.Deliverable{Kind: task.DeliverableTestPass})
			d.ValidationStages = append(d.ValidationStages, task.StageUnit)
		}
	case t.ActionType == task.ActionTest:
		d.Deliverables = append(d.Deliverables, task.Deliverable{Kind: task.DeliverableTestPass})
		d.ValidationStages = append(d.ValidationStages, task.StageUnit)
	default:
		// Research-class and review tasks have no file deliverables; the
		// acceptance criterion is simply "findings were produced".
		d.AcceptanceCriteria = []string{"structured findings were reported"}
	}
	return d
}

func fileDeliverableKind(a task.ActionType) task.DeliverableKind {
	switch a {
	case task.ActionDelete:
		return task.DeliverableFileDeleted
	case task.ActionAdd, task.ActionCreate:
		return task.DeliverableFileCreated
	default:
		return task.DeliverableFileModified
	}
}

// needsTests reports whether the target files look like source files worth
// running a test suite against, versus pure documentation/config edits.
func needsTests(files []string) bool {
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rs", ".vue":
			return true
		}
	}
	return false
}

// FromLLM asks the LLM Gateway to propose a DoD for the task description.
// The response is parsed defensively: any field the model omits falls back
// to the heuristic's value for that field so a partially-unhelpful response
// never yields an empty DoD.
func FromLLM(ctx context.Context, gw llmgateway.Gateway, t *task.Task) (task.DoD, error) {
	fallback := Heuristic(t)
	req := llmgateway.Request{
		Messages: []llmgateway.Message{
			{Role: llmgateway.RoleSystem, Parts: []llmgateway.Part{llmgateway.Text(dodSystemPrompt)}},
			{Role: llmgateway.RoleUser, Parts: []llmgateway.Part{llmgateway.Text(t.Description)}},
		},
		SupportsTools: false,
	}
	resp, err := gw.Chat(ctx, req)
	if err != nil {
		return fallback, err
	}
	parsed, ok := parseDoD(resp.Text())
	if !ok {
		return fallback, nil
	}
	if len(parsed.Deliverables) == 0 {
		parsed.Deliverables = fallback.Deliverables
	}
	if len(parsed.ValidationStages) == 0 {
		parsed.ValidationStages = fallback.ValidationStages
	}
	if len(parsed.AcceptanceCriteria) == 0 {
		parsed.AcceptanceCriteria = fallback.AcceptanceCriteria
	}
	return parsed, nil
}

const dodSystemPrompt = `You define the Definition of Done for a single coding task. ` +
	`Respond with a JSON object: {"acceptance_criteria": ["..."], "validation_stages": ["syntax"|"integration"|"unit"]}. ` +
	`Do not include any prose outside the JSON object.`
