package builtin

import (
	"testing"

	"github.com/papapumpkin/limar/internal/manifest"
)

func newManifestWithBuiltins() *manifest.Manifest {
	m := manifest.New()
	for _, f := range All() {
		m.Register(f)
	}
	return m
}

func TestQueryContextAttachesParsedCommand(t *testing.T) {
	m := newManifestWithBuiltins()
	src := `@query (command: "echo hi && echo bye", parse: ".") {
  q
}`
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	item, ok := m.Items["q"]
	if !ok {
		t.Fatal("item q not declared")
	}
	if !item.Tags.Has("query") {
		t.Error("item q should be tagged 'query'")
	}
	inv, ok := item.Extra["command"].(*Invocation)
	if !ok {
		t.Fatalf("item q missing parsed command, Extra = %v", item.Extra)
	}
	if inv.Parse != "." {
		t.Errorf("Parse = %q, want %q", inv.Parse, ".")
	}
	if len(inv.Cmd.Subcommands) != 2 {
		t.Errorf("len(Subcommands) = %d, want 2", len(inv.Cmd.Subcommands))
	}
}

func TestNestedQueryContextsAreRejected(t *testing.T) {
	m := newManifestWithBuiltins()
	src := `@query (command: "echo a", parse: ".") {
  @query (command: "echo b", parse: ".") {
    inner
  }
}`
	if err := m.Parse(src); err == nil {
		t.Error("expected nested @query contexts to fail")
	}
}

func TestCommandTagWithoutAttachedCommandFailsUnlessEscaped(t *testing.T) {
	m := newManifestWithBuiltins()
	if err := m.Parse("missing (command, id: m)"); err == nil {
		t.Error("expected a bare 'command' tag with no attached command to fail on exit-manifest")
	}

	m2 := newManifestWithBuiltins()
	if err := m2.Parse("missing (command, __draft)"); err != nil {
		t.Errorf("expected __-escaped item to skip validation, got error = %v", err)
	}
}

func TestCommandContextAttachesInvocationAndSatisfiesValidation(t *testing.T) {
	m := newManifestWithBuiltins()
	if err := m.Parse(`@command (command: "echo hi") {
  declared
}`); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := m.Items["declared"]
	if _, ok := item.Extra["command"].(*Invocation); !ok {
		t.Errorf("declared item missing attached invocation, Extra = %v", item.Extra)
	}
}

func TestSubjectRequiresIDTag(t *testing.T) {
	m := newManifestWithBuiltins()
	if err := m.Parse("@subject { noid }"); err == nil {
		t.Error("expected @subject item without 'id' tag to fail")
	}

	m2 := newManifestWithBuiltins()
	if err := m2.Parse(`@subject { withid (id: a) }`); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := m2.Items["withid"]
	if item.Extra["id"] != "a" {
		t.Errorf("id = %v, want %q", item.Extra["id"], "a")
	}
}

func TestSubjectCanBeRootOutsideAnyContext(t *testing.T) {
	m := newManifestWithBuiltins()
	if err := m.Parse("toplevel (id: x)"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := m.Items["toplevel"]
	if !item.Tags.Has("subject") {
		t.Error("top-level item should be tagged 'subject' via can_be_root")
	}
}

func TestSubjectDependenciesStripLeadingSlash(t *testing.T) {
	m := newManifestWithBuiltins()
	src := `a (id: "a")
b (id: "b", /a)`
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	deps, ok := m.Items["b"].Extra[dependenciesKey].([]string)
	if !ok {
		t.Fatalf("item b missing dependencies, Extra = %v", m.Items["b"].Extra)
	}
	if len(deps) != 1 || deps[0] != "a" {
		t.Errorf("dependencies = %v, want [%q] (ref, not tag name)", deps, "a")
	}
}

func TestCacheResolvesNearestEnclosingOptionsWithDisabledPrecedence(t *testing.T) {
	m := newManifestWithBuiltins()
	src := `@cache (enabled) {
  @cache (disabled) {
    a
  }
  b
}`
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a := m.Items["a"].Extra["cache"].(CacheConfig)
	if a.Enabled {
		t.Error("a should inherit disabled from its immediate @cache context")
	}
	b := m.Items["b"].Extra["cache"].(CacheConfig)
	if !b.Enabled {
		t.Error("b should inherit enabled from the outer @cache context")
	}
}
