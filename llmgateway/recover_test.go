package llmgateway

import "testing"

func TestRecover_FencedJSON(t *testing.T) {
	text := "Sure, here's the call:\n```json\n{\"tool\": \"run_tests\", \"args\": {\"command\": \"go\"}}\n```\nDone."
	call, ok := Recover(text, []string{"run_tests"})
	if !ok {
		t.Fatal("expected recovery to succeed")
	}
	if call.Name != "run_tests" {
		t.Fatalf("name = %q, want run_tests", call.Name)
	}
}

func TestRecover_BareObject(t *testing.T) {
	text := `{"tool": "read_file", "args": {"path": "main.go"}}`
	call, ok := Recover(text, []string{"read_file"})
	if !ok {
		t.Fatal("expected recovery to succeed")
	}
	if call.Name != "read_file" {
		t.Fatalf("name = %q, want read_file", call.Name)
	}
}

func TestRecover_RejectsUnlistedTool(t *testing.T) {
	text := `{"tool": "delete_file", "args": {"path": "main.go"}}`
	_, ok := Recover(text, []string{"read_file"})
	if ok {
		t.Fatal("expected recovery to fail for an un-allowlisted tool")
	}
}

func TestRecover_NoJSONFails(t *testing.T) {
	_, ok := Recover("I think we should read the file next.", []string{"read_file"})
	if ok {
		t.Fatal("expected recovery to fail when no JSON object is present")
	}
}

func TestRecover_MissingArgsDefaultsToEmptyObject(t *testing.T) {
	text := `{"tool": "list_dir"}`
	call, ok := Recover(text, []string{"list_dir"})
	if !ok {
		t.Fatal("expected recovery to succeed")
	}
	if string(call.Payload) != "{}" {
		t.Fatalf("payload = %s, want {}", call.Payload)
	}
}
