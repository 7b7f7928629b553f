package llmgateway

// ResolveTools implements the LLM Gateway's tool-list invariant:
//
//   - a non-empty curated list is forwarded verbatim unless a non-empty
//     retrieval result narrows it;
//   - an empty curated list is normalized to "no tools";
//   - when the curated list is empty but the model supports tools and a
//     registry default exists, the registry default is used;
//   - CRITICAL: a non-empty curated list is never overwritten by an empty
//     retrieval result. Retrieval only narrows or reorders a curated list
//     that was already non-empty; it never empties one out.
//
// curated is the task-scoped tool list assembled by the caller (typically
// toolreg.Select's output translated to ToolDefinition). retrieved is the
// result of a secondary narrowing pass (e.g. a relevance re-rank) that may
// legitimately return fewer tools, but never zero when curated was
// non-empty. registryDefault is used only when curated is empty and the
// model supports tool use at all.
func ResolveTools(curated, retrieved []ToolDefinition, supportsTools bool, registryDefault []ToolDefinition) []ToolDefinition {
	if !supportsTools {
		return nil
	}
	if len(curated) == 0 {
		if len(registryDefault) > 0 {
			return registryDefault
		}
		return nil
	}
	if len(retrieved) == 0 {
		// Never let an empty retrieval result blank out a non-empty curated
		// list.
		return curated
	}
	return retrieved
}
