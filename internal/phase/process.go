package phase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/papapumpkin/limar/internal/errs"
)

// Process tracks the current phase of a live instance and allows guarded
// mutation of that phase according to the rules of its System.
type Process struct {
	system         *System
	name           string
	current        Phase
	completedPhase Phase
	hasCompleted   bool
	subprocesses   map[Phase]*Process
}

// ProcessOption configures a Process at construction time.
type ProcessOption func(*processConfig)

type processConfig struct {
	initialPhase   Phase
	hasInitial     bool
	completedPhase Phase
	hasCompleted   bool
	name           string
	idLength       int
}

// WithInitialPhase overrides the system's default initial phase.
func WithInitialPhase(p Phase) ProcessOption {
	return func(c *processConfig) { c.initialPhase = p; c.hasInitial = true }
}

// WithCompletedPhase declares the phase that IsComplete checks against.
func WithCompletedPhase(p Phase) ProcessOption {
	return func(c *processConfig) { c.completedPhase = p; c.hasCompleted = true }
}

// WithName overrides the process's display name (before the de-dup
// suffix is appended). Defaults to the system's name.
func WithName(name string) ProcessOption {
	return func(c *processConfig) { c.name = name }
}

// WithIDLength sets the length (in hex characters) of the random
// de-duplication suffix appended to the process name. 0 disables the
// suffix, for systems where only a single process instance is expected.
func WithIDLength(n int) ProcessOption {
	return func(c *processConfig) { c.idLength = n }
}

// NewProcess creates a Process governed by sys.
func NewProcess(sys *System, opts ...ProcessOption) *Process {
	cfg := processConfig{idLength: 8}
	for _, opt := range opts {
		opt(&cfg)
	}

	name := cfg.name
	if name == "" {
		name = sys.Name()
	}
	if cfg.idLength > 0 {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
		if cfg.idLength < len(suffix) {
			suffix = suffix[:cfg.idLength]
		}
		name = fmt.Sprintf("%s(%s)", name, suffix)
	}

	current := sys.InitialPhase()
	if cfg.hasInitial {
		current = cfg.initialPhase
	}

	return &Process{
		system:         sys,
		name:           name,
		current:        current,
		completedPhase: cfg.completedPhase,
		hasCompleted:   cfg.hasCompleted,
		subprocesses:   make(map[Phase]*Process),
	}
}

// Name returns the process's (possibly de-duplicated) display name.
func (p *Process) Name() string { return p.name }

// System returns the phase system governing this process.
func (p *Process) System() *System { return p.system }

// Current returns the current phase.
func (p *Process) Current() Phase { return p.current }

// IsBefore, IsAtOrBefore, IsAt, IsAtOrAfter, IsAfter compare the current
// phase against the given one, using the system's linear ordering.

func (p *Process) IsBefore(target Phase) (bool, error) {
	d, err := p.system.GetDelta(p.current, target)
	if err != nil {
		return false, err
	}
	return d > 0, nil
}

func (p *Process) IsAtOrBefore(target Phase) (bool, error) {
	d, err := p.system.GetDelta(p.current, target)
	if err != nil {
		return false, err
	}
	return d >= 0, nil
}

func (p *Process) IsAt(target Phase) (bool, error) {
	d, err := p.system.GetDelta(p.current, target)
	if err != nil {
		return false, err
	}
	return d == 0, nil
}

func (p *Process) IsAtOrAfter(target Phase) (bool, error) {
	d, err := p.system.GetDelta(p.current, target)
	if err != nil {
		return false, err
	}
	return d <= 0, nil
}

func (p *Process) IsAfter(target Phase) (bool, error) {
	d, err := p.system.GetDelta(p.current, target)
	if err != nil {
		return false, err
	}
	return d < 0, nil
}

// IsInAnyOf reports whether the current phase is a member of phases.
func (p *Process) IsInAnyOf(phases []Phase) bool {
	for _, ph := range phases {
		if ph == p.current {
			return true
		}
	}
	return false
}

// IsComplete reports whether this process has no declared completion
// phase, or has reached it.
func (p *Process) IsComplete() bool {
	if !p.hasCompleted {
		return true
	}
	return p.current == p.completedPhase
}

// TransitionTo moves to the given phase, if the system allows the
// transition and any subprocess registered at the current phase is
// complete.
func (p *Process) TransitionTo(target Phase) error {
	if !p.system.CanTransition(p.current, target) {
		return errs.New(errs.PhaseError,
			"process %q cannot transition from %q to %q: not allowed by system %q",
			p.name, p.current, target, p.system.Name())
	}

	if sub, ok := p.subprocesses[p.current]; ok && !sub.IsComplete() {
		return errs.New(errs.PhaseError,
			"process %q cannot transition from %q to %q: subprocess %q is not complete",
			p.name, p.current, target, sub.Name())
	}

	p.current = target
	return nil
}

// TransitionToNext advances one linear step.
func (p *Process) TransitionToNext() error {
	next, err := p.system.ApplyDelta(p.current, 1)
	if err != nil {
		return err
	}
	return p.TransitionTo(next)
}

// TransitionToComplete transitions directly to the declared completion
// phase.
func (p *Process) TransitionToComplete() error {
	if !p.hasCompleted {
		return errs.New(errs.PhaseError, "process %q has no completion phase to transition to", p.name)
	}
	return p.TransitionTo(p.completedPhase)
}

// StartSubprocess registers a subprocess against the given phase: this
// process cannot leave that phase until the subprocess IsComplete(). Each
// phase may have at most one registered subprocess.
func (p *Process) StartSubprocess(at Phase, sub *Process) error {
	if _, ok := p.subprocesses[at]; ok {
		return errs.New(errs.PhaseError,
			"phase %q already has a registered subprocess for process %q", at, p.name)
	}
	p.subprocesses[at] = sub
	return nil
}

// StopSubprocess deregisters the subprocess registered at the given phase.
// Unless force is true, it fails if that subprocess is not complete.
func (p *Process) StopSubprocess(at Phase, force bool) error {
	sub, ok := p.subprocesses[at]
	if !ok {
		return errs.New(errs.PhaseError,
			"cannot stop subprocess for phase %q of process %q: none registered", at, p.name)
	}
	if !force && !sub.IsComplete() {
		return errs.New(errs.PhaseError,
			"cannot stop subprocess %q for phase %q of process %q: not complete (use force)",
			sub.Name(), at, p.name)
	}
	delete(p.subprocesses, at)
	return nil
}

// SubprocessAt returns the subprocess registered at the given phase, if
// any.
func (p *Process) SubprocessAt(at Phase) (*Process, bool) {
	sub, ok := p.subprocesses[at]
	return sub, ok
}
