package orchestrator

import (
	"codeforge.dev/agentcore/dod"
	"codeforge.dev/agentcore/task"
)

// defaultDoD attaches a Definition of Done to a freshly proposed task
// before it ever reaches the Plan gate, using the heuristic generator.
// The Loop always uses dod.Heuristic; it does not read Config.DoDMode and
// never calls dod.FromLLM.
func defaultDoD(t *task.Task) task.DoD {
	return dod.Heuristic(t)
}
