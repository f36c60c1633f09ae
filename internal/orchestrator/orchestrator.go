// Package orchestrator implements the module lifecycle manager: modules are
// registered up front, then carried in lock-step through a fixed sequence of
// lifecycle phases (initialisation, dependency resolution, environment and
// argument configuration, configuration, starting, running, stopping), with
// one or more modules named directly on the command line and chained with
// `->`.
package orchestrator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/papapumpkin/limar/internal/config"
	"github.com/papapumpkin/limar/internal/dag"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/shellsink"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Phase identifies a point in the module lifecycle; modules implementing
// Invokable can branch on it when looked up via Orchestrator.Invoke.
type Phase string

const (
	PhaseRegistration             Phase = "registration"
	PhaseInitialisation           Phase = "initialisation"
	PhaseEnvironmentConfiguration Phase = "environment-configuration"
	PhaseArgumentConfiguration    Phase = "argument-configuration"
	PhaseConfiguration            Phase = "configuration"
	PhaseStarting                 Phase = "starting"
	PhaseRunning                  Phase = "running"
	PhaseStopping                 Phase = "stopping"
)

// Orchestrator is a ModuleManager: it owns the registered module factories,
// their initialised instances, and the shared state (environment, root
// flags, shell sink) threaded through every lifecycle phase.
type Orchestrator struct {
	appName    string
	phase      Phase
	log        *zap.SugaredLogger
	registered map[string]Factory
	regOrder   []string
	mods       map[string]Module
	order      []string // dependency-resolved iteration order

	envParser *config.EnvironmentParser
	rootFlags *pflag.FlagSet
	sink      *shellsink.Sink
}

// New creates an Orchestrator for the named application. log may be nil, in
// which case a no-op logger is used.
func New(appName string, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		appName:    appName,
		phase:      PhaseRegistration,
		log:        log,
		registered: map[string]Factory{},
		mods:       map[string]Module{},
		envParser:  config.NewEnvironmentParser(appName),
		rootFlags:  pflag.NewFlagSet(appName, pflag.ContinueOnError),
	}
}

// NameOf derives a module's kebab-case name from its Go type, e.g.
// *CacheModule -> "cache". Built-in modules use this so their registered
// name always tracks their type name.
func NameOf(instance Module) string {
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return classToModuleName(t.Name())
}

// Register adds a module factory under name. Calling Register once the
// Registration phase has ended, or re-registering an already-registered
// name, is an error.
func (o *Orchestrator) Register(name string, f Factory) error {
	if o.phase != PhaseRegistration {
		return errs.New(errs.RegistrationError, "attempt to register module %q after module initialisation", name)
	}
	if o.IsRegistered(name) {
		return errs.New(errs.RegistrationError, "module %q is already registered", name)
	}
	o.registered[name] = f
	o.regOrder = append(o.regOrder, name)
	return nil
}

// IsRegistered reports whether a module with the given name has been
// registered.
func (o *Orchestrator) IsRegistered(name string) bool {
	_, ok := o.registered[name]
	return ok
}

// IsInitialised reports whether a registered module has been initialised.
func (o *Orchestrator) IsInitialised(name string) bool {
	_, ok := o.mods[name]
	return ok
}

// Invoke looks up the named module's instance, dispatching its Invoke hook
// (if any) with the orchestrator's current phase, and returns the instance.
func (o *Orchestrator) Invoke(name string) (Module, error) {
	mod, ok := o.mods[name]
	if !ok {
		return nil, errs.New(errs.DependencyError, "module not initialised: %q", name)
	}
	if inv, ok := mod.(Invokable); ok {
		inv.Invoke(o.phase, o)
	}
	return mod, nil
}

// AddShellCommand queues a command for the wrapping shell to source after
// this process exits. A no-op until Run has set up the sink.
func (o *Orchestrator) AddShellCommand(command string) {
	if o.sink != nil {
		o.sink.Add(command)
	}
}

// Run drives the full lifecycle and executes the `->`-chained module
// invocations named in cliArgs (app name excluded). A nil cliEnv parses the
// real process environment; a nil or empty cliArgs runs no module
// invocations.
func (o *Orchestrator) Run(cliArgs []string, cliEnv []string, sinkPath string) error {
	if err := o.initialise(); err != nil {
		return err
	}
	depOrder, err := o.resolveDependencies()
	if err != nil {
		return err
	}
	o.order = depOrder

	env, err := o.configureEnvironment(cliEnv)
	if err != nil {
		return err
	}

	globalOpts, invocations := splitInvocations(cliArgs)
	if err := o.rootFlags.Parse(globalOpts); err != nil {
		return errs.Wrap(errs.ConfigError, err, "parsing global options")
	}

	moduleArgs, err := o.configureArguments(env, invocations)
	if err != nil {
		return err
	}
	globalArgs := &Args{flags: o.rootFlags, Positional: o.rootFlags.Args()}

	o.phase = PhaseConfiguration
	for _, name := range o.order {
		mod := o.mods[name]
		if c, ok := mod.(Configurable); ok {
			o.log.Debugf("configuring module %q", name)
			if err := c.Configure(o, env, globalArgs); err != nil {
				return errs.Wrap(errs.ConfigError, err, "configuring module %q", name)
			}
		}
	}

	o.sink = shellsink.New(sinkPath)

	started, runErr := o.startAndRun(env, globalArgs, invocations, moduleArgs)

	o.stop(env, globalArgs, started)

	if runErr != nil {
		o.log.Warnw("skipping shell command write-out after error", "error", runErr)
		return runErr
	}
	return o.sink.Write()
}

func (o *Orchestrator) initialise() error {
	o.phase = PhaseInitialisation
	for _, name := range o.regOrder {
		factory := o.registered[name]
		if factory == nil {
			return errs.New(errs.RegistrationError, "initialisation failed: %q could not be initialised: not callable", name)
		}
		o.mods[name] = factory()
		o.log.Debugf("initialised module %q", name)
	}
	return nil
}

func (o *Orchestrator) resolveDependencies() ([]string, error) {
	g := dag.New()
	for _, name := range o.regOrder {
		_ = g.AddNode(name, 0)
	}
	for _, name := range o.regOrder {
		mod := o.mods[name]
		dm, ok := mod.(DependencyModule)
		if !ok {
			continue
		}
		for _, dep := range dm.Dependencies() {
			if !o.IsInitialised(dep) {
				return nil, errs.New(errs.DependencyError,
					"resolve dependencies failed: module %q depended on by %q not registered", dep, name)
			}
			if err := g.AddEdge(name, dep); err != nil {
				return nil, errs.Wrap(errs.DependencyError, err, "resolving dependencies of module %q", name)
			}
		}
	}
	sorted, err := g.TopologicalSort()
	if err != nil {
		return nil, errs.Wrap(errs.DependencyError, err, "modules have circular dependencies")
	}
	// Edges run from a module to its dependencies, and TopologicalSort
	// places zero-dependency nodes first, so sorted is already in
	// dependency-then-dependent order -- exactly what every lifecycle phase
	// after this one needs.
	return sorted, nil
}

func (o *Orchestrator) configureEnvironment(cliEnv []string) (*config.Env, error) {
	o.phase = PhaseEnvironmentConfiguration
	for _, name := range o.order {
		mod := o.mods[name]
		if ec, ok := mod.(EnvConfigurable); ok {
			o.log.Debugf("configuring environment for module %q", name)
			ec.ConfigureEnv(o.envParser.Sub(name), o.envParser)
		}
	}
	env, err := o.envParser.Parse(cliEnv)
	if err != nil {
		return nil, errs.Wrap(errs.ConfigError, err, "parsing environment")
	}
	return env, nil
}

func (o *Orchestrator) configureArguments(env *config.Env, invocations [][]string) (map[string]*Args, error) {
	o.phase = PhaseArgumentConfiguration
	for _, name := range o.order {
		mod := o.mods[name]
		if rac, ok := mod.(RootArgsConfigurable); ok {
			rac.ConfigureRootArgs(o.rootFlags)
		}
	}

	argSets := map[string]*Args{}
	for _, invocation := range invocations {
		if len(invocation) == 0 {
			continue
		}
		name := invocation[0]
		flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
		if mod, ok := o.mods[name]; ok {
			if ac, ok := mod.(ArgsConfigurable); ok {
				ac.ConfigureArgs(env, flags)
			}
		}
		if err := flags.Parse(invocation[1:]); err != nil {
			return nil, errs.Wrap(errs.ConfigError, err, "parsing arguments for module %q", name)
		}
		argSets[name] = &Args{flags: flags, Positional: flags.Args()}
	}
	return argSets, nil
}

func (o *Orchestrator) startAndRun(env *config.Env, globalArgs *Args, invocations [][]string, moduleArgs map[string]*Args) ([]string, error) {
	o.phase = PhaseStarting
	var started []string
	for _, name := range o.order {
		mod := o.mods[name]
		s, ok := mod.(Startable)
		if !ok {
			started = append(started, name)
			continue
		}
		o.log.Debugf("starting module %q", name)
		if err := s.Start(o, env, globalArgs); err != nil {
			o.log.Errorw("starting module failed, stopping already-started modules", "module", name, "error", err)
			return started, errs.Wrap(errs.InternalError, err, "starting module %q", name)
		}
		started = append(started, name)
	}

	o.phase = PhaseRunning
	var forwardData any
	for _, invocation := range invocations {
		if len(invocation) == 0 {
			continue
		}
		name := invocation[0]
		mod, err := o.Invoke(name)
		if err != nil {
			return started, err
		}
		runnable, ok := mod.(Runnable)
		if !ok {
			return started, errs.New(errs.InternalError, "module not runnable: %q", name)
		}
		o.log.Debugf("running module %q", name)
		data, err := runnable.Run(o, env, moduleArgs[name], forwardData)
		if err != nil {
			return started, errs.Wrap(errs.InternalError, err, "running module %q", name)
		}
		forwardData = data
	}
	return started, nil
}

func (o *Orchestrator) stop(env *config.Env, globalArgs *Args, started []string) {
	o.phase = PhaseStopping
	for i := len(started) - 1; i >= 0; i-- {
		name := started[i]
		mod := o.mods[name]
		st, ok := mod.(Stoppable)
		if !ok {
			continue
		}
		o.log.Debugf("stopping module %q", name)
		if err := st.Stop(o, env, globalArgs); err != nil {
			o.log.Errorw("stopping module failed, SKIPPING; state may be unclean", "module", name, "error", err)
		}
	}
}

// splitInvocations separates leading global `-`-prefixed options from the
// `->`-chained module invocations that follow.
func splitInvocations(cliArgs []string) (globalOpts []string, invocations [][]string) {
	i := 0
	for i < len(cliArgs) && strings.HasPrefix(cliArgs[i], "-") {
		globalOpts = append(globalOpts, cliArgs[i])
		i++
	}
	rest := cliArgs[i:]
	invocations = [][]string{{}}
	for _, arg := range rest {
		if arg == "->" {
			invocations = append(invocations, []string{})
			continue
		}
		last := len(invocations) - 1
		invocations[last] = append(invocations[last], arg)
	}
	if len(invocations) == 1 && len(invocations[0]) == 0 {
		invocations = nil
	}
	return globalOpts, invocations
}

func (o *Orchestrator) String() string {
	return fmt.Sprintf("Orchestrator(%s)", o.appName)
}
