package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustRepair(t *testing.T, raw string) map[string]any {
	t.Helper()
	data, err := NewRepairer().Repair(raw)
	if err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("repaired output is not valid JSON: %v\n%s", err, data)
	}
	return out
}

func TestRepairCleanJSON(t *testing.T) {
	out := mustRepair(t, `{"name":"Oakdale","state":"CA"}`)
	if out["name"] != "Oakdale" {
		t.Errorf("name = %v, want Oakdale", out["name"])
	}
}

func TestRepairCodeFences(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"name\":\"Oakdale\"}\n```\nHope that helps!"
	out := mustRepair(t, raw)
	if out["name"] != "Oakdale" {
		t.Errorf("name = %v, want Oakdale", out["name"])
	}
}

func TestRepairSmartQuotesAndUnquotedKeys(t *testing.T) {
	raw := "{name: “Oakdale”, state: “CA”,}"
	out := mustRepair(t, raw)
	if out["name"] != "Oakdale" || out["state"] != "CA" {
		t.Errorf("got %v", out)
	}
}

func TestRepairMisplacedArrayClose(t *testing.T) {
	// An array element closed with ] instead of } before the next object.
	raw := `{"items":[{"name":"A","website":"https://a.example"],{"name":"B","website":"https://b.example"}]}`
	out := mustRepair(t, raw)
	items, ok := out["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, want 2 elements", out["items"])
	}
	first := items[0].(map[string]any)
	if first["name"] != "A" {
		t.Errorf("first item = %v", first)
	}
}

func TestRepairAdjacentObjects(t *testing.T) {
	raw := `{"items":[{"name":"A"}{"name":"B"}]}`
	out := mustRepair(t, raw)
	items := out["items"].([]any)
	if len(items) != 2 {
		t.Errorf("items = %v, want 2 elements", items)
	}
}

func TestRepairTruncatedOutput(t *testing.T) {
	// Output cut mid-value by the token limit.
	raw := `{"name":"Oakdale","schools":{"items":[{"name":"Lincoln Elementary","description":"A good scho`
	out := mustRepair(t, raw)
	if out["name"] != "Oakdale" {
		t.Errorf("name = %v, want Oakdale", out["name"])
	}
}

func TestRepairSingleQuotedKeys(t *testing.T) {
	raw := `{'name': "Oakdale", 'state': "CA"}`
	out := mustRepair(t, raw)
	if out["name"] != "Oakdale" {
		t.Errorf("got %v", out)
	}
}

func TestRepairIrreparableOutput(t *testing.T) {
	raw := "I'm sorry, I can't produce that."
	_, err := NewRepairer().Repair(raw)
	if err == nil {
		t.Fatal("expected error for non-JSON output")
	}
	var irr *IrreparableOutputError
	if !errors.As(err, &irr) {
		t.Fatalf("error type = %T, want IrreparableOutputError", err)
	}
	if !strings.Contains(irr.Head, "sorry") {
		t.Errorf("diagnostic head %q should carry the raw text", irr.Head)
	}
}

func TestHeadTailWindows(t *testing.T) {
	long := strings.Repeat("a", 500) + strings.Repeat("b", 500)
	head, tail := headTail(long)
	if len(head) != diagWindow || len(tail) != diagWindow {
		t.Fatalf("window sizes = %d/%d, want %d", len(head), len(tail), diagWindow)
	}
	if head[0] != 'a' || tail[len(tail)-1] != 'b' {
		t.Errorf("windows not anchored to start/end")
	}

	short := "tiny"
	head, tail = headTail(short)
	if head != short || tail != short {
		t.Errorf("short input should be returned whole, got %q/%q", head, tail)
	}
}
