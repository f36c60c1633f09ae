package manifest

import "testing"

func TestParseItemsAndImplicitTagSets(t *testing.T) {
	m := New()
	if err := m.Parse("a (x, y)\nb (y)"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(m.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(m.Items))
	}
	a, ok := m.Items["a"]
	if !ok {
		t.Fatalf("item %q not found", "a")
	}
	if !a.Tags.Has("x") || !a.Tags.Has("y") {
		t.Errorf("item a tags = %v, want x and y", a.Tags.Names())
	}

	xSet, ok := m.ItemSets["x"]
	if !ok || xSet.Len() != 1 || !xSet.Has("a") {
		t.Errorf("item_sets.x does not contain exactly {a}")
	}
	ySet, ok := m.ItemSets["y"]
	if !ok || ySet.Len() != 2 || !ySet.Has("a") || !ySet.Has("b") {
		t.Errorf("item_sets.y does not contain exactly {a, b}")
	}
}

func TestParseItemSetAlgebra(t *testing.T) {
	m := New()
	if err := m.Parse("a (x, y)\nb (y)\ns = x & y\ns2 = x | y"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	s, ok := m.ItemSets["s"]
	if !ok || s.Len() != 1 || !s.Has("a") {
		t.Fatalf("s (x & y) = %v, want {a}", refsOf(s))
	}

	s2, ok := m.ItemSets["s2"]
	if !ok {
		t.Fatalf("s2 not declared")
	}
	got := refsOf(s2)
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("s2 (x | y) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("s2[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func refsOf(s *ItemSet) []string {
	items := s.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Ref
	}
	return out
}

func TestTagIndexStaysConsistentAfterMutation(t *testing.T) {
	m := New()
	if err := m.Parse("a (x)"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	a := m.Items["a"]

	a.Tags.Remove("x")
	if xSet, ok := m.ItemSets["x"]; ok && xSet.Has("a") {
		t.Error("item_sets.x still contains a after tag removal")
	}

	a.Tags.Add("z")
	zSet, ok := m.ItemSets["z"]
	if !ok || !zSet.Has("a") {
		t.Error("item_sets.z does not contain a after tag addition")
	}
}

func TestTagValueAndComment(t *testing.T) {
	m := New()
	src := "# a comment\nitem (name: value, bare)\n"
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item, ok := m.Items["item"]
	if !ok {
		t.Fatal("item not declared")
	}
	if v, has := item.Tags.Get("name"); !has || v != "value" {
		t.Errorf("tag name = (%q, %v), want (\"value\", true)", v, has)
	}
	if _, has := item.Tags.Get("bare"); has {
		t.Error("bare tag should have no value")
	}
	if !item.Tags.Has("bare") {
		t.Error("bare tag should be present")
	}
}

type recordingModule struct {
	typ      string
	root     bool
	entered  []string
	declared []string
}

func (m *recordingModule) ContextType() string { return m.typ }
func (m *recordingModule) CanBeRoot() bool      { return m.root }
func (m *recordingModule) OnEnterContext(ctx *Context) error {
	m.entered = append(m.entered, ctx.Type)
	return nil
}
func (m *recordingModule) OnDeclareItem(contexts []*Context, item *Item) error {
	m.declared = append(m.declared, item.Ref)
	return nil
}

func TestContextDispatchAndRootCapableModule(t *testing.T) {
	mod := &recordingModule{typ: "thing", root: true}
	m := New()
	m.Register(func() ContextModule { return mod })

	src := "toplevel\n@thing {\n  nested\n}\n"
	if err := m.Parse(src); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(mod.entered) != 1 || mod.entered[0] != "thing" {
		t.Errorf("entered = %v, want [\"thing\"]", mod.entered)
	}
	want := []string{"toplevel", "nested"}
	if len(mod.declared) != len(want) {
		t.Fatalf("declared = %v, want %v", mod.declared, want)
	}
	for i := range want {
		if mod.declared[i] != want[i] {
			t.Errorf("declared[%d] = %q, want %q", i, mod.declared[i], want[i])
		}
	}
}

func TestUnknownContextTypeIsIgnoredNotFatal(t *testing.T) {
	m := New()
	if err := m.Parse("@unknown (k: v) {\n  x\n}\n"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := m.Items["x"]; !ok {
		t.Error("item inside an unknown context should still be declared")
	}
}
