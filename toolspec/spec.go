// Package toolspec defines the Tool contract: a shared
// schema agents construct arguments against and the Tool Invoker validates
// before dispatch, closing the "duck-typed tool arguments" bug class named
// (a writer reading "file_path" while a tool declared "path").
//
// It is a deliberately flat contract: no DSL-specific fields (IsAgentTool,
// Confirmation, ServerData) that only make sense in a codegen context, just
// {name, description, parameters} plus JSON-Schema validation.
package toolspec

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"codeforge.dev/agentcore/task"
)

// Spec is one registered tool's schema.
type Spec struct {
	// Name is the tool's stable identifier, e.g. "write_file", "run_cmd".
	Name string
	// Description is shown to the LLM to explain when to call this tool.
	Description string
	// Parameters is the tool's argument JSON Schema: {"type":"object",
	// "properties": {...}, "required": [...]}.
	Parameters json.RawMessage
	// Tags classify the tool for schema-selection relevance scoring
	// (e.g. "fs", "vcs", "subprocess", "analysis").
	Tags []string
	// ActionTypes lists the action types that may be offered this tool.
	// An empty list means "available to every action type".
	ActionTypes []task.ActionType
	// Destructive marks tools whose effects overwrite or remove content
	// (write_file, delete_file, move_file, apply_patch). Nothing in policy
	// reads it; the destructive-interdependency guardrail works from task
	// action types.
	Destructive bool

	compiled *jsonschema.Schema
}

// AvailableTo reports whether this tool may be offered for the given action
// type.
func (s *Spec) AvailableTo(a task.ActionType) bool {
	if len(s.ActionTypes) == 0 {
		return true
	}
	for _, at := range s.ActionTypes {
		if at == a {
			return true
		}
	}
	return false
}

// Compile lazily compiles the Parameters JSON Schema. Called once by the
// registry at registration time; safe to call multiple times.
func (s *Spec) Compile() error {
	if s.compiled != nil {
		return nil
	}
	if len(s.Parameters) == 0 {
		s.Parameters = json.RawMessage(`{"type":"object"}`)
	}
	c := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(s.Parameters, &doc); err != nil {
		return fmt.Errorf("toolspec: %s: invalid parameters schema: %w", s.Name, err)
	}
	url := "mem://" + s.Name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("toolspec: %s: %w", s.Name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("toolspec: %s: %w", s.Name, err)
	}
	s.compiled = schema
	return nil
}

// Validate checks arguments against the compiled schema. Compile must have
// been called first (the registry does this at registration time); Validate
// compiles lazily as a fallback so standalone use still works.
func (s *Spec) Validate(args json.RawMessage) error {
	if s.compiled == nil {
		if err := s.Compile(); err != nil {
			return err
		}
	}
	var doc any
	if err := json.Unmarshal(args, &doc); err != nil {
		return fmt.Errorf("toolspec: %s: arguments are not valid JSON: %w", s.Name, err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("toolspec: %s: arguments do not match schema: %w", s.Name, err)
	}
	return nil
}

// JSONSchemaDoc returns the tool's description in the flat {name,
// description, parameters} shape the LLM Gateway sends to providers.
type JSONSchemaDoc struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Doc returns the JSON-Schema-facing view of the spec.
func (s *Spec) Doc() JSONSchemaDoc {
	return JSONSchemaDoc{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
}
