package query

import "testing"

func TestJQFirstReturnsOnlyFirstEmittedValue(t *testing.T) {
	input := map[string]any{"items": []any{1, 2, 3}}
	results, err := JQ(".items[]", input, true)
	if err != nil {
		t.Fatalf("JQ() error = %v", err)
	}
	if len(results) != 1 || results[0] != 1 {
		t.Errorf("results = %v, want [1]", results)
	}
}

func TestJQAllReturnsEveryEmittedValue(t *testing.T) {
	input := map[string]any{"items": []any{1, 2, 3}}
	results, err := JQ(".items[]", input, false)
	if err != nil {
		t.Fatalf("JQ() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
}

func TestPQWalksNestedFieldsAndIndexes(t *testing.T) {
	input := map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		},
	}
	got, err := PQ(".items[1].name", input)
	if err != nil {
		t.Fatalf("PQ() error = %v", err)
	}
	if got != "b" {
		t.Errorf("PQ() = %v, want %q", got, "b")
	}
}

func TestPQMissingFieldErrors(t *testing.T) {
	_, err := PQ(".missing", map[string]any{})
	if err == nil {
		t.Error("expected error for missing field")
	}
}
