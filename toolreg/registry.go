// Package toolreg provides the concrete tool registry: registration,
// JSON-Schema validation at registration time, and the Tool Schema
// Selector that picks which tool schemas to present
// to the LLM for a given action type and task description.
//
// Federation (merging multiple upstream schema sources with a name-
// collision policy) supports combining a built-in tool set with an
// organization-specific one.
package toolreg

import (
	"fmt"
	"sync"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolspec"
)

// Registry holds the set of tools available to the core.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*toolspec.Spec
	// order preserves registration order for deterministic iteration
	// (stable test output, stable "all tools" listings).
	order []string
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]*toolspec.Spec)}
}

// Register adds a tool spec, compiling its JSON Schema immediately so a
// malformed schema fails fast at startup rather than at first dispatch.
// Mid-run tool_create registration is forbidden; Register is only
// ever called once at startup from cmd/agentcore, before any run begins.
func (r *Registry) Register(spec *toolspec.Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("toolreg: tool spec missing name")
	}
	if err := spec.Compile(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; !exists {
		r.order = append(r.order, spec.Name)
	}
	r.tools[spec.Name] = spec
	return nil
}

// Lookup returns the spec for a registered tool name.
func (r *Registry) Lookup(name string) (*toolspec.Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.tools[name]
	return s, ok
}

// All returns every registered spec in registration order.
func (r *Registry) All() []*toolspec.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*toolspec.Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// ForActionType returns every registered spec available to the given
// action type, in registration order.
func (r *Registry) ForActionType(a task.ActionType) []*toolspec.Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*toolspec.Spec
	for _, name := range r.order {
		s := r.tools[name]
		if s.AvailableTo(a) {
			out = append(out, s)
		}
	}
	return out
}

// ConflictPolicy decides which spec wins when Merge encounters two tools
// registered under the same name.
type ConflictPolicy int

const (
	// PreferExisting keeps the receiver's spec on name collision.
	PreferExisting ConflictPolicy = iota
	// PreferIncoming overwrites the receiver's spec with the incoming one.
	PreferIncoming
	// RejectOnConflict causes Merge to fail on the first collision.
	RejectOnConflict
)

// Merge federates another registry's tools into this one according to
// policy. Used when a deployment wants to combine a built-in tool set with
// an organization-specific one.
func (r *Registry) Merge(other *Registry, policy ConflictPolicy) error {
	other.mu.RLock()
	incoming := make([]*toolspec.Spec, 0, len(other.order))
	for _, name := range other.order {
		incoming = append(incoming, other.tools[name])
	}
	other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range incoming {
		_, exists := r.tools[spec.Name]
		switch {
		case !exists:
			r.order = append(r.order, spec.Name)
			r.tools[spec.Name] = spec
		case policy == PreferIncoming:
			r.tools[spec.Name] = spec
		case policy == RejectOnConflict:
			return fmt.Errorf("toolreg: merge conflict on tool %q", spec.Name)
		// PreferExisting: leave r.tools[spec.Name] untouched.
		default:
		}
	}
	return nil
}
