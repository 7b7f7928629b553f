package toolreg

import (
	"encoding/json"
	"testing"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolspec"
)

func specNamed(name string) *toolspec.Spec {
	return &toolspec.Spec{Name: name, Parameters: json.RawMessage(`{"type":"object"}`)}
}

func TestRegisterRejectsUnnamedSpec(t *testing.T) {
	r := New()
	if err := r.Register(&toolspec.Spec{}); err == nil {
		t.Fatalf("expected Register to reject a spec with no name")
	}
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	r := New()
	s := &toolspec.Spec{Name: "broken", Parameters: json.RawMessage(`not json`)}
	if err := r.Register(s); err == nil {
		t.Fatalf("expected Register to fail fast on an invalid schema")
	}
}

func TestLookupAndAllPreserveRegistrationOrder(t *testing.T) {
	r := New()
	for _, name := range []string{"read_file", "write_file", "search_code"} {
		if err := r.Register(specNamed(name)); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	if _, ok := r.Lookup("write_file"); !ok {
		t.Fatalf("expected write_file to be registered")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("did not expect missing to be registered")
	}
	all := r.All()
	if len(all) != 3 || all[0].Name != "read_file" || all[1].Name != "write_file" || all[2].Name != "search_code" {
		t.Fatalf("expected registration order preserved, got %+v", all)
	}
}

func TestForActionTypeFiltersByAvailability(t *testing.T) {
	r := New()
	readOnly := &toolspec.Spec{Name: "read_file", Parameters: json.RawMessage(`{"type":"object"}`), ActionTypes: []task.ActionType{task.ActionRead}}
	anyAction := specNamed("search_code")
	if err := r.Register(readOnly); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(anyAction); err != nil {
		t.Fatalf("Register: %v", err)
	}
	forEdit := r.ForActionType(task.ActionEdit)
	if len(forEdit) != 1 || forEdit[0].Name != "search_code" {
		t.Fatalf("expected only the action-agnostic tool available to edit, got %+v", forEdit)
	}
	forRead := r.ForActionType(task.ActionRead)
	if len(forRead) != 2 {
		t.Fatalf("expected both tools available to read, got %+v", forRead)
	}
}

func TestMergePreferExistingKeepsReceiverSpec(t *testing.T) {
	a := New()
	b := New()
	_ = a.Register(specNamed("write_file"))
	_ = b.Register(specNamed("write_file"))
	if err := a.Merge(b, PreferExisting); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, _ := a.Lookup("write_file")
	if got == nil {
		t.Fatalf("expected write_file to remain registered")
	}
}

func TestMergePreferIncomingOverwrites(t *testing.T) {
	a := New()
	b := New()
	existing := specNamed("write_file")
	incoming := &toolspec.Spec{Name: "write_file", Description: "org override", Parameters: json.RawMessage(`{"type":"object"}`)}
	_ = a.Register(existing)
	_ = b.Register(incoming)
	if err := a.Merge(b, PreferIncoming); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, _ := a.Lookup("write_file")
	if got.Description != "org override" {
		t.Fatalf("expected incoming spec to win, got %+v", got)
	}
}

func TestMergeRejectOnConflictFails(t *testing.T) {
	a := New()
	b := New()
	_ = a.Register(specNamed("write_file"))
	_ = b.Register(specNamed("write_file"))
	if err := a.Merge(b, RejectOnConflict); err == nil {
		t.Fatalf("expected Merge to fail on name collision under RejectOnConflict")
	}
}

func TestMergeAddsNewToolsFromOtherRegistry(t *testing.T) {
	a := New()
	b := New()
	_ = a.Register(specNamed("write_file"))
	_ = b.Register(specNamed("run_cmd"))
	if err := a.Merge(b, PreferExisting); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, ok := a.Lookup("run_cmd"); !ok {
		t.Fatalf("expected run_cmd to be federated into the receiver")
	}
	if len(a.All()) != 2 {
		t.Fatalf("expected 2 tools after merge, got %d", len(a.All()))
	}
}
