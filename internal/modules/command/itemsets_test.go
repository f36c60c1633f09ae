package cmdmodule

import (
	"testing"

	"github.com/papapumpkin/limar/internal/command"
	"github.com/papapumpkin/limar/internal/manifest"
	"github.com/papapumpkin/limar/internal/manifest/builtin"
)

func parseWithBuiltins(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m := manifest.New()
	for _, f := range builtin.All() {
		m.Register(f)
	}
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return m
}

func TestBuildItemSetsProjectsSubjectsAndCommands(t *testing.T) {
	src := `@subject (id) {
  @query (command: "echo hi", parse: ".") {
    a (id: "a")
  }
}`
	m := parseWithBuiltins(t, src)

	subjects, items, err := buildItemSets(m)
	if err != nil {
		t.Fatalf("buildItemSets() error = %v", err)
	}

	subj, ok := subjects["a"]
	if !ok {
		t.Fatalf("subjects missing ref %q: %v", "a", subjects)
	}
	if subj.ID != "a" {
		t.Errorf("subject id = %q, want %q", subj.ID, "a")
	}

	item, ok := items["a"]
	if !ok {
		t.Fatalf("items missing ref %q: %v", "a", items)
	}
	if item.Kind != "query" {
		t.Errorf("Kind = %q, want %q", item.Kind, "query")
	}
	if item.ParseExpr != "." {
		t.Errorf("ParseExpr = %q, want %q", item.ParseExpr, ".")
	}
}

func TestBuildItemSetsResolvesTransitiveDependencies(t *testing.T) {
	src := `@subject (id) {
  @query (command: "echo a", parse: ".") {
    a (id: "a")
  }
  @query (command: "echo b", parse: ".") {
    b (id: "b", /a)
  }
}`
	m := parseWithBuiltins(t, src)

	_, items, err := buildItemSets(m)
	if err != nil {
		t.Fatalf("buildItemSets() error = %v", err)
	}

	b, ok := items["b"]
	if !ok {
		t.Fatalf("items missing ref %q", "b")
	}
	if !contains(b.TransitiveDependencies, "a") {
		t.Errorf("b.TransitiveDependencies = %v, want to contain %q", b.TransitiveDependencies, "a")
	}

	a, ok := items["a"]
	if !ok {
		t.Fatalf("items missing ref %q", "a")
	}
	if !contains(a.TransitiveDependants, "b") {
		t.Errorf("a.TransitiveDependants = %v, want to contain %q", a.TransitiveDependants, "b")
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

func TestTabulateProducesSortedColumnsAndRows(t *testing.T) {
	entities := map[string]command.Entity{
		"b": {"name": "bee", "size": 2},
		"a": {"name": "ay"},
	}
	table := tabulate(entities)

	wantCols := []string{"name", "size"}
	if len(table.Columns) != len(wantCols) || table.Columns[0] != wantCols[0] || table.Columns[1] != wantCols[1] {
		t.Errorf("Columns = %v, want %v", table.Columns, wantCols)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if table.Rows[0][0] != "ay" {
		t.Errorf("Rows[0][name] = %v, want %q", table.Rows[0][0], "ay")
	}
}
