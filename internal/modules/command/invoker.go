package cmdmodule

import (
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/orchestrator"
)

// invokable is the canonical signature a module method must implement to
// be callable from a command interpolation like `{{ manifest.ref() }}`.
// This is a deliberate simplification of the original's dynamic
// `getattr(module, method)(*args)` dispatch, which tolerates any Python
// method signature: Go has no equivalent runtime argument-matching, so
// every invokable method across every built-in module is written against
// this one canonical shape instead.
type invokable func(args ...string) (any, error)

// methodInvoker adapts the orchestrator's named-module lookup to
// command.ModuleInvoker, dispatching a `module.method(args)` subquery to
// the live module instance's canonical invokable method.
type methodInvoker struct {
	o *orchestrator.Orchestrator
}

func newMethodInvoker(o *orchestrator.Orchestrator) *methodInvoker {
	return &methodInvoker{o: o}
}

func (m *methodInvoker) Invoke(module, method string, args []string) (any, error) {
	mod, err := m.o.Invoke(module)
	if err != nil {
		return nil, err
	}
	named, ok := mod.(interface{ Invokable(string) (invokable, bool) })
	if !ok {
		return nil, errs.New(errs.CommandRunError, "module %q exposes no invokable methods", module)
	}
	fn, ok := named.Invokable(method)
	if !ok {
		return nil, errs.New(errs.CommandRunError, "module %q has no invokable method %q", module, method)
	}
	return fn(args...)
}

// methodTable backs a module's `Invokable(name) (invokable, bool)` lookup
// with a plain map of method name to implementation, rather than
// reflection over exported methods. The command module builds one inside
// its own Invokable method.
type methodTable map[string]invokable

func (t methodTable) Invokable(name string) (invokable, bool) {
	fn, ok := t[strings.ToLower(name)]
	return fn, ok
}
