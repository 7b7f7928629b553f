package toolreg

import (
	"sort"
	"strings"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolspec"
)

// Select implements the Tool Schema Selector: given a
// requested action type and the task description, it returns the tool
// schemas to present to the LLM, guaranteeing a non-empty set whenever any
// candidates are registered for that action type.
//
// Scoring is a weighted substring match against name (x3), description
// (x2), and tags (x1), normalized by the maximum possible score. When
// every candidate scores
// zero relevance against the description (common for short/generic
// descriptions), every candidate is still returned rather than an empty
// list — the selector's job is to narrow when it can, never to starve the
// caller of tools it could plausibly need.
func (r *Registry) Select(a task.ActionType, description string, maxResults int) []*toolspec.Spec {
	candidates := r.ForActionType(a)
	if len(candidates) == 0 {
		return nil
	}
	scored := make([]scoredSpec, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoredSpec{spec: c, relevance: relevance(c, description)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].relevance > scored[j].relevance
	})
	if maxResults <= 0 || maxResults > len(scored) {
		maxResults = len(scored)
	}
	out := make([]*toolspec.Spec, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		out = append(out, scored[i].spec)
	}
	return out
}

type scoredSpec struct {
	spec      *toolspec.Spec
	relevance float64
}

// relevance computes a weighted keyword match score in [0, 1]. A zero score
// does not exclude a tool from the result (see Select's doc comment); it
// only affects ordering.
func relevance(s *toolspec.Spec, description string) float64 {
	desc := strings.ToLower(description)
	if desc == "" {
		return 0
	}
	terms := strings.Fields(desc)
	if len(terms) == 0 {
		return 0
	}
	var score, max float64
	name := strings.ToLower(s.Name)
	sdesc := strings.ToLower(s.Description)
	tags := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		tags[i] = strings.ToLower(t)
	}
	for _, term := range terms {
		if len(term) < 3 {
			continue // skip stopword-length noise
		}
		max += 3 + 2 + 1
		if strings.Contains(name, term) {
			score += 3
		}
		if strings.Contains(sdesc, term) {
			score += 2
		}
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				score += 1
				break
			}
		}
	}
	if max == 0 {
		return 0
	}
	return score / max
}
