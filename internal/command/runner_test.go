package command

import (
	"testing"

	"github.com/papapumpkin/limar/internal/store"
)

type fakeInvoker struct {
	calls   []string
	results map[string]any
}

func (f *fakeInvoker) Invoke(module, method string, args []string) (any, error) {
	f.calls = append(f.calls, module+"."+method)
	if r, ok := f.results[module+"."+method]; ok {
		return r, nil
	}
	return nil, nil
}

func newTestRunner(t *testing.T, items map[string]*CommandItem, invoker ModuleInvoker) *Runner {
	t.Helper()
	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	r, err := NewRunner(nil, items, NewCacheUtils(s), invoker, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func TestRunCommandInterpolatesParameterBeforeSystemSubcommand(t *testing.T) {
	cmd, err := Parse("echo {{ manifest.ref() : . }}")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	invoker := &fakeInvoker{results: map[string]any{"manifest.ref": "hello"}}
	r := newTestRunner(t, map[string]*CommandItem{
		"q": {Ref: "q", Kind: "query", Cmd: cmd, ParseExpr: "."},
	}, invoker)

	outputs, err := r.RunCommand("q", cmd)
	if err != nil {
		t.Fatalf("RunCommand() error = %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("len(outputs) = %d, want 1", len(outputs))
	}
	res, ok := outputs[0].(map[string]any)
	if !ok {
		t.Fatalf("outputs[0] = %T, want map[string]any", outputs[0])
	}
	if res["stdout"] != "hello" {
		t.Errorf("stdout = %v, want %q", res["stdout"], "hello")
	}
}

func TestRunQueryParsesOutputWithJQ(t *testing.T) {
	cmd, err := Parse("echo hi")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := &CommandItem{Ref: "q", Kind: "query", Cmd: cmd, ParseExpr: ".[0].stdout"}
	r := newTestRunner(t, map[string]*CommandItem{"q": item}, &fakeInvoker{})

	out, err := r.RunQuery("q", item)
	if err != nil {
		t.Fatalf("RunQuery() error = %v", err)
	}
	if out != "hi" {
		t.Errorf("RunQuery() = %v, want %q", out, "hi")
	}
}

func TestActionWithNoParseExpressionDiscardsOutput(t *testing.T) {
	cmd, err := Parse("echo hi")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := &CommandItem{Ref: "a", Kind: "action", Cmd: cmd}
	r := newTestRunner(t, map[string]*CommandItem{"a": item}, &fakeInvoker{})

	out, err := r.RunAction("a", item)
	if err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}
	if out != nil {
		t.Errorf("RunAction() = %v, want nil", out)
	}
}

func TestSystemSubcommandFailureIsFatalUnlessAllowedToFail(t *testing.T) {
	cmd, err := Parse("false")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r := newTestRunner(t, map[string]*CommandItem{}, &fakeInvoker{})
	if _, err := r.RunCommand("x", cmd); err == nil {
		t.Error("expected a failing subcommand to be fatal")
	}

	okCmd, err := Parse("! false")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := r.RunCommand("x", okCmd); err != nil {
		t.Errorf("expected allowed-to-fail subcommand not to error, got %v", err)
	}
}

func TestBatchMergesEntitiesBySubject(t *testing.T) {
	cmd, err := Parse("echo hi")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := &CommandItem{Ref: "q", Kind: "query", Cmd: cmd, ParseExpr: "{id: \"a\", name: .[0].stdout}"}
	r := newTestRunner(t, map[string]*CommandItem{"q": item}, &fakeInvoker{})

	batch := r.NewBatch([]string{"id"})
	if err := batch.Add("q"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	merged, err := batch.Process()
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	entity, ok := merged["a"]
	if !ok {
		t.Fatalf("merged = %v, want key %q", merged, "a")
	}
	if entity["name"] != "hi" {
		t.Errorf("entity[name] = %v, want %q", entity["name"], "hi")
	}
}

func TestBatchCachesEnabledCommandOutput(t *testing.T) {
	cmd, err := Parse("echo hi")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	item := &CommandItem{
		Ref: "q", Kind: "query", Cmd: cmd, ParseExpr: "{id: \"a\"}",
		CacheEnabled: true, CacheRetention: "session",
	}
	r := newTestRunner(t, map[string]*CommandItem{"q": item}, &fakeInvoker{})

	for i := 0; i < 2; i++ {
		batch := r.NewBatch([]string{"id"})
		if err := batch.Add("q"); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if _, err := batch.Process(); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
	}
}
