package orchestrator

import (
	"github.com/papapumpkin/limar/internal/config"
	"github.com/spf13/pflag"
)

// Module is any object produced by a Factory. It need not implement any
// particular interface: each lifecycle phase only acts on a module if that
// module implements the matching optional hook below, mirroring the
// duck-typed module protocol modules are written against.
type Module any

// Factory constructs a fresh module instance. Factories run exactly once
// per Orchestrator, during the Initialisation phase.
type Factory func() Module

// DependencyModule declares the names of other modules that must be fully
// lifecycled ahead of this one.
type DependencyModule interface {
	Dependencies() []string
}

// EnvConfigurable lets a module register the environment variables it reads,
// against both its own namespaced parser and the orchestrator's root parser.
type EnvConfigurable interface {
	ConfigureEnv(parser, rootParser *config.EnvironmentParser)
}

// RootArgsConfigurable lets a module add flags to the orchestrator's global
// flag set, parsed ahead of any module name on the command line.
type RootArgsConfigurable interface {
	ConfigureRootArgs(rootFlags *pflag.FlagSet)
}

// ArgsConfigurable lets a module register the flags and positional
// arguments it accepts when invoked directly from the command line.
type ArgsConfigurable interface {
	ConfigureArgs(env *config.Env, flags *pflag.FlagSet)
}

// Configurable lets a module configure itself, or other modules it depends
// on, once every module's environment and arguments are known.
type Configurable interface {
	Configure(o *Orchestrator, env *config.Env, args *Args) error
}

// Startable lets a module fully initialise itself -- acquiring resources,
// deriving env/args-dependent state -- before any module runs.
type Startable interface {
	Start(o *Orchestrator, env *config.Env, args *Args) error
}

// Stoppable lets a module tear itself down. Guaranteed to run, in reverse
// start order, for every module that started without error.
type Stoppable interface {
	Stop(o *Orchestrator, env *config.Env, args *Args) error
}

// Runnable is implemented by modules that can be named directly on the
// command line. ForwardData is whatever the previous module in a `->`
// chain returned; the first module in a chain receives nil.
type Runnable interface {
	Run(o *Orchestrator, env *config.Env, args *Args, forwardData any) (any, error)
}

// Invokable lets a module observe being looked up by another module via
// Orchestrator.Invoke, before the reference is handed back.
type Invokable interface {
	Invoke(phase Phase, o *Orchestrator)
}

// Args is the parsed flag/positional-argument set for one module
// invocation, built from that module's own ConfigureArgs registrations.
type Args struct {
	flags *pflag.FlagSet
	Positional []string
}

func (a *Args) String(name string) string {
	v, _ := a.flags.GetString(name)
	return v
}

func (a *Args) Bool(name string) bool {
	v, _ := a.flags.GetBool(name)
	return v
}

func (a *Args) StringSlice(name string) []string {
	v, _ := a.flags.GetStringSlice(name)
	return v
}

func (a *Args) Changed(name string) bool {
	f := a.flags.Lookup(name)
	return f != nil && f.Changed
}
