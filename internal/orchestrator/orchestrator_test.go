package orchestrator

import (
	"testing"

	"github.com/papapumpkin/limar/internal/config"
	"github.com/spf13/pflag"
)

type recorder struct {
	name  string
	log   *[]string
	deps  []string
	fail  string
}

func (r *recorder) Dependencies() []string { return r.deps }

func (r *recorder) Configure(o *Orchestrator, env *config.Env, args *Args) error {
	*r.log = append(*r.log, "configure:"+r.name)
	return nil
}

func (r *recorder) Start(o *Orchestrator, env *config.Env, args *Args) error {
	*r.log = append(*r.log, "start:"+r.name)
	if r.fail == "start" {
		return errFake(r.name)
	}
	return nil
}

func (r *recorder) Stop(o *Orchestrator, env *config.Env, args *Args) error {
	*r.log = append(*r.log, "stop:"+r.name)
	return nil
}

func (r *recorder) Run(o *Orchestrator, env *config.Env, args *Args, forwardData any) (any, error) {
	*r.log = append(*r.log, "run:"+r.name)
	return r.name, nil
}

func (r *recorder) ConfigureArgs(env *config.Env, flags *pflag.FlagSet) {
	flags.String("opt", "default", "")
}

type fakeErr string

func errFake(name string) error { return fakeErr(name) }
func (e fakeErr) Error() string { return string(e) + " failed" }

func newRecorder(name string, log *[]string, deps ...string) *recorder {
	return &recorder{name: name, log: log, deps: deps}
}

func TestLifecycleRunsModulesInDependencyOrder(t *testing.T) {
	var log []string
	o := New("limar", nil)
	base := newRecorder("base", &log)
	top := newRecorder("top", &log, "base")

	if err := o.Register("base", func() Module { return base }); err != nil {
		t.Fatalf("Register(base) error = %v", err)
	}
	if err := o.Register("top", func() Module { return top }); err != nil {
		t.Fatalf("Register(top) error = %v", err)
	}

	if err := o.Run([]string{"top"}, []string{}, t.TempDir()+"/out.sh"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantPrefix := []string{"configure:base", "configure:top", "start:base", "start:top", "run:top"}
	if len(log) < len(wantPrefix) {
		t.Fatalf("log too short: %v", log)
	}
	for i, want := range wantPrefix {
		if log[i] != want {
			t.Errorf("log[%d] = %q, want %q (full log %v)", i, log[i], want, log)
		}
	}
}

func TestStartFailureStopsOnlyStartedModulesInReverseOrder(t *testing.T) {
	var log []string
	o := New("limar", nil)
	a := newRecorder("a", &log)
	b := newRecorder("b", &log, "a")
	b.fail = "start"

	_ = o.Register("a", func() Module { return a })
	_ = o.Register("b", func() Module { return b })

	err := o.Run([]string{"a"}, []string{}, t.TempDir()+"/out.sh")
	if err == nil {
		t.Fatal("expected Run() to return the start error")
	}

	foundStopA := false
	for _, entry := range log {
		if entry == "stop:a" {
			foundStopA = true
		}
		if entry == "stop:b" {
			t.Error("b never started successfully, should never be stopped")
		}
	}
	if !foundStopA {
		t.Errorf("expected successfully-started module 'a' to be stopped, log = %v", log)
	}
}

func TestRegisterAfterRunIsRejected(t *testing.T) {
	o := New("limar", nil)
	_ = o.Register("a", func() Module { return &recorder{name: "a", log: &[]string{}} })
	_ = o.Run([]string{"a"}, []string{}, t.TempDir()+"/out.sh")

	if err := o.Register("b", func() Module { return &recorder{name: "b", log: &[]string{}} }); err == nil {
		t.Error("expected registering a module after the lifecycle has started to fail")
	}
}

func TestCircularDependenciesAreRejected(t *testing.T) {
	o := New("limar", nil)
	var log []string
	_ = o.Register("a", func() Module { return newRecorder("a", &log, "b") })
	_ = o.Register("b", func() Module { return newRecorder("b", &log, "a") })

	if err := o.Run([]string{"a"}, []string{}, t.TempDir()+"/out.sh"); err == nil {
		t.Error("expected circular module dependencies to fail")
	}
}

func TestSplitInvocationsSeparatesGlobalOptsAndArrowChain(t *testing.T) {
	globalOpts, invocations := splitInvocations([]string{"-v", "--config", "x", "manifest", "load", "->", "command", "run", "build"})
	if len(globalOpts) != 3 {
		t.Errorf("globalOpts = %v, want 3 entries", globalOpts)
	}
	if len(invocations) != 2 {
		t.Fatalf("invocations = %v, want 2 chains", invocations)
	}
	if invocations[0][0] != "manifest" || invocations[1][0] != "command" {
		t.Errorf("invocations = %v", invocations)
	}
}

func TestClassToModuleNameNormalisesGoTypeNames(t *testing.T) {
	cases := map[string]string{
		"CacheModule":      "cache",
		"HTTPClientModule": "http-client",
		"Tr":                "tr",
	}
	for in, want := range cases {
		if got := classToModuleName(in); got != want {
			t.Errorf("classToModuleName(%q) = %q, want %q", in, got, want)
		}
	}
}
