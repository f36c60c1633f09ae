package phase

import "testing"

func linearSystem() *System {
	return New("test:linear", []Phase{"a", "b", "c", "d"})
}

func TestCanTransitionLinearOnlyAllowsNextStep(t *testing.T) {
	s := linearSystem()

	if !s.CanTransition("a", "b") {
		t.Error("expected a -> b to be allowed")
	}
	if s.CanTransition("a", "c") {
		t.Error("expected a -> c to be disallowed (skips a step)")
	}
	if s.CanTransition("b", "a") {
		t.Error("expected b -> a to be disallowed (backwards)")
	}
}

func TestCanTransitionHonoursJumps(t *testing.T) {
	s := New("test:jumps", []Phase{"a", "b", "c", "d"}, WithJumps(Jumps{
		"a": {"d"},
	}))

	if !s.CanTransition("a", "d") {
		t.Error("expected a -> d to be allowed via jump")
	}
	if s.CanTransition("b", "d") {
		t.Error("expected b -> d to be disallowed (no jump, not +1)")
	}
}

func TestGetDeltaAndApplyDeltaFailOnNonLinear(t *testing.T) {
	s := New("test:nonlinear", []Phase{"a", "b"}, NonLinear())

	if _, err := s.GetDelta("a", "b"); err == nil {
		t.Error("expected GetDelta to fail on non-linear system")
	}
	if _, err := s.ApplyDelta("a", 1); err == nil {
		t.Error("expected ApplyDelta to fail on non-linear system")
	}
}

func TestTransitionToFailsWhenDisallowed(t *testing.T) {
	p := NewProcess(linearSystem(), WithIDLength(0))

	if err := p.TransitionTo("c"); err == nil {
		t.Error("expected transition a -> c to fail")
	}
	if p.Current() != "a" {
		t.Errorf("Current() = %q, want unchanged %q", p.Current(), "a")
	}
}

func TestTransitionToNextAdvancesOneStep(t *testing.T) {
	p := NewProcess(linearSystem(), WithIDLength(0))

	if err := p.TransitionToNext(); err != nil {
		t.Fatalf("TransitionToNext() error = %v", err)
	}
	if p.Current() != "b" {
		t.Errorf("Current() = %q, want %q", p.Current(), "b")
	}
}

func TestTransitionBlockedByIncompleteSubprocess(t *testing.T) {
	sys := linearSystem()
	p := NewProcess(sys, WithIDLength(0))
	sub := NewProcess(sys, WithIDLength(0), WithInitialPhase("c"), WithCompletedPhase("d"))

	if err := p.StartSubprocess("a", sub); err != nil {
		t.Fatalf("StartSubprocess() error = %v", err)
	}

	if err := p.TransitionToNext(); err == nil {
		t.Error("expected transition to fail while subprocess is incomplete")
	}

	if err := sub.TransitionTo("d"); err != nil {
		t.Fatalf("sub.TransitionTo() error = %v", err)
	}
	if err := p.TransitionToNext(); err != nil {
		t.Errorf("expected transition to succeed once subprocess completes, got error = %v", err)
	}
}

func TestDuplicateSubprocessRegistrationFails(t *testing.T) {
	sys := linearSystem()
	p := NewProcess(sys, WithIDLength(0))
	sub1 := NewProcess(sys, WithIDLength(0))
	sub2 := NewProcess(sys, WithIDLength(0))

	if err := p.StartSubprocess("a", sub1); err != nil {
		t.Fatalf("StartSubprocess() error = %v", err)
	}
	if err := p.StartSubprocess("a", sub2); err == nil {
		t.Error("expected duplicate subprocess registration to fail")
	}
}

func TestStopSubprocessRequiresCompletionUnlessForced(t *testing.T) {
	sys := linearSystem()
	p := NewProcess(sys, WithIDLength(0))
	sub := NewProcess(sys, WithIDLength(0), WithCompletedPhase("d"))
	_ = p.StartSubprocess("a", sub)

	if err := p.StopSubprocess("a", false); err == nil {
		t.Error("expected StopSubprocess to fail on incomplete subprocess without force")
	}
	if err := p.StopSubprocess("a", true); err != nil {
		t.Errorf("expected forced StopSubprocess to succeed, got error = %v", err)
	}
	if _, ok := p.SubprocessAt("a"); ok {
		t.Error("expected subprocess to be removed after StopSubprocess")
	}
}

func TestIsCompleteWithNoCompletionPhaseIsAlwaysTrue(t *testing.T) {
	p := NewProcess(linearSystem(), WithIDLength(0))
	if !p.IsComplete() {
		t.Error("expected IsComplete() to be true when no completion phase declared")
	}
}

func TestNameGetsRandomSuffixByDefault(t *testing.T) {
	p1 := NewProcess(linearSystem())
	p2 := NewProcess(linearSystem())
	if p1.Name() == p2.Name() {
		t.Errorf("expected distinct names, both = %q", p1.Name())
	}
}

func TestIDLengthZeroDisablesSuffix(t *testing.T) {
	p := NewProcess(linearSystem(), WithIDLength(0))
	if p.Name() != "test:linear" {
		t.Errorf("Name() = %q, want %q", p.Name(), "test:linear")
	}
}
