// Package phase provides a reusable finite-state machine abstraction: a
// System declares an ordered (optionally non-linear) set of phases, and a
// Process tracks a single instance's current phase with guarded
// transitions, matching core/modules/phase_utils in the LIMAR original.
package phase

import (
	"github.com/papapumpkin/limar/internal/errs"
)

// Phase is just a name. Systems and Processes operate on these names.
type Phase string

// Jumps maps a phase to the set of phases reachable from it outside the
// normal +1 linear progression.
type Jumps map[Phase][]Phase

// System specifies the rules of how a defined set of phases relate to one
// another, and the allowed transitions between them.
type System struct {
	name     string
	phases   []Phase
	index    map[Phase]int
	jumps    Jumps
	isLinear bool
}

// Option configures a System at construction time.
type Option func(*System)

// WithJumps declares non-linear transitions allowed in addition to (or, for
// a non-linear system, instead of) the +1 linear step.
func WithJumps(jumps Jumps) Option {
	return func(s *System) { s.jumps = jumps }
}

// NonLinear marks the system as not totally ordered: GetDelta/ApplyDelta
// are unavailable, and CanTransition consults only Jumps.
func NonLinear() Option {
	return func(s *System) { s.isLinear = false }
}

// New builds a System named name with phases in the given order.
func New(name string, phases []Phase, opts ...Option) *System {
	s := &System{
		name:     name,
		phases:   append([]Phase(nil), phases...),
		index:    make(map[Phase]int, len(phases)),
		jumps:    Jumps{},
		isLinear: true,
	}
	for i, p := range phases {
		s.index[p] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the system's name.
func (s *System) Name() string { return s.name }

// Phases returns the ordered phase list.
func (s *System) Phases() []Phase { return append([]Phase(nil), s.phases...) }

// InitialPhase returns the first phase in the ordered list.
func (s *System) InitialPhase() Phase { return s.phases[0] }

// HasPhase reports whether phase is a member of this system.
func (s *System) HasPhase(p Phase) bool {
	_, ok := s.index[p]
	return ok
}

// GetDelta returns the signed number of steps from "from" to "to" in the
// linear ordering. Only valid for linear systems.
func (s *System) GetDelta(from, to Phase) (int, error) {
	if !s.isLinear {
		return 0, errs.New(errs.PhaseError, "cannot get delta from %q to %q: phase system %q is not linear", from, to, s.name)
	}
	fi, ok := s.index[from]
	if !ok {
		return 0, errs.New(errs.PhaseError, "phase %q is not a member of system %q", from, s.name)
	}
	ti, ok := s.index[to]
	if !ok {
		return 0, errs.New(errs.PhaseError, "phase %q is not a member of system %q", to, s.name)
	}
	return ti - fi, nil
}

// ApplyDelta returns the phase reached by stepping delta places from
// "from" in the linear ordering. Only valid for linear systems.
func (s *System) ApplyDelta(from Phase, delta int) (Phase, error) {
	if !s.isLinear {
		return "", errs.New(errs.PhaseError, "cannot apply delta to %q: phase system %q is not linear", from, s.name)
	}
	fi, ok := s.index[from]
	if !ok {
		return "", errs.New(errs.PhaseError, "phase %q is not a member of system %q", from, s.name)
	}
	ti := fi + delta
	if ti < 0 || ti >= len(s.phases) {
		return "", errs.New(errs.PhaseError, "delta %+d from phase %q is out of range for system %q", delta, from, s.name)
	}
	return s.phases[ti], nil
}

// CanTransition reports whether a transition from "from" to "to" is
// allowed: true iff to is one linear step ahead (for linear systems), or
// to is listed in Jumps[from].
func (s *System) CanTransition(from, to Phase) bool {
	if s.isLinear {
		if delta, err := s.GetDelta(from, to); err == nil && delta == 1 {
			return true
		}
	}
	for _, j := range s.jumps[from] {
		if j == to {
			return true
		}
	}
	return false
}
