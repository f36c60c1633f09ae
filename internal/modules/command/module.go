package cmdmodule

import (
	"github.com/papapumpkin/limar/internal/command"
	"github.com/papapumpkin/limar/internal/config"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
	"github.com/papapumpkin/limar/internal/orchestrator"
	"github.com/papapumpkin/limar/internal/phase"
	"github.com/papapumpkin/limar/internal/store"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// lifecycle is the INFO_LIFECYCLE phase system every invocation of the
// command module steps through while it runs, ported verbatim from the
// original's phase names.
var lifecycle = phase.New("INFO_LIFECYCLE", []phase.Phase{
	"INITIALISE", "GET", "SUBJECT", "RUN", "TABULATE", "RENDER",
})

// ManifestSource is the contract the `manifest` module must satisfy for
// the command module to resolve it as a dependency: it exposes the fully
// parsed manifest once the manifest module has started.
type ManifestSource interface {
	Parsed() *manifest.Manifest
}

// Module is the `command` orchestrator module: it builds the command
// engine's runner from the parsed manifest's subject/command items, then
// runs (or fetches from cache) every requested ref, merging the results
// by subject. Grounded on modules/command.py's CommandModule.
type Module struct {
	log *zap.SugaredLogger

	cacheDirVar string // fully-namespaced env var name, set in ConfigureEnv
	cacheDir    string
	refs        []string
	noCache     bool

	runner *command.Runner
}

// New creates an unconfigured command module; log may be nil.
func New(log *zap.SugaredLogger) *Module {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Module{log: log}
}

func (m *Module) Dependencies() []string { return []string{"manifest"} }

func (m *Module) ConfigureEnv(env *config.EnvironmentParser, _ *config.EnvironmentParser) {
	env.VarDefault("cache-dir", ".limar/cache")
	m.cacheDirVar = env.FullName("cache-dir")
}

func (m *Module) ConfigureArgs(_ *config.Env, flags *pflag.FlagSet) {
	flags.StringArrayVarP(&m.refs, "command", "c", nil, "command or query ref to run (repeatable)")
	flags.BoolVar(&m.noCache, "no-cache", false, "bypass the command cache for this invocation")
}

// Configure resolves the manifest dependency, builds the runner's
// subject/command item sets from it, and opens the on-disk cache.
func (m *Module) Configure(o *orchestrator.Orchestrator, env *config.Env, _ *orchestrator.Args) error {
	if logMod, err := o.Invoke("log"); err == nil {
		if lg, ok := logMod.(interface{ Logger() *zap.SugaredLogger }); ok {
			m.log = lg.Logger()
		}
	}

	mod, err := o.Invoke("manifest")
	if err != nil {
		return err
	}
	src, ok := mod.(ManifestSource)
	if !ok {
		return errs.New(errs.DependencyError, "manifest module does not expose a parsed manifest")
	}

	dir, _ := env.String(m.cacheDirVar)
	if dir == "" {
		dir = ".limar/cache"
	}
	m.cacheDir = dir

	subjects, items, err := buildItemSets(src.Parsed())
	if err != nil {
		return err
	}

	s, err := store.New(m.cacheDir)
	if err != nil {
		return errs.Wrap(errs.StoreError, err, "opening command cache at %q", m.cacheDir)
	}
	cache := command.NewCacheUtils(s)
	if m.noCache {
		cache.Disable()
	}

	runner, err := command.NewRunner(subjects, items, cache, newMethodInvoker(o), m.log)
	if err != nil {
		return err
	}
	m.runner = runner
	return nil
}

// Run executes the GET -> SUBJECT -> RUN -> TABULATE -> RENDER phases for
// one module invocation: it resolves the requested refs (from -c flags),
// takes the subject fields from the positional arguments (default `id`),
// batches and runs the refs, and returns
// the merged entity table for the next chained module to render or
// consume. A fresh Process backs each invocation, since each `->`-chained
// occurrence of `command` in one CLI run is an independent request.
func (m *Module) Run(o *orchestrator.Orchestrator, env *config.Env, args *orchestrator.Args, forwardData any) (any, error) {
	process := phase.NewProcess(lifecycle, phase.WithName("command"))

	if err := process.TransitionToNext(); err != nil { // INITIALISE -> GET
		return nil, err
	}
	refs := m.refs
	if len(refs) == 0 {
		return nil, errs.New(errs.CommandRunError, "command module invoked with no command refs (-c/--command)")
	}

	if err := process.TransitionToNext(); err != nil { // GET -> SUBJECT
		return nil, err
	}
	subject := []string{"id"}
	if args != nil && len(args.Positional) > 0 {
		subject = args.Positional
	}

	if err := process.TransitionToNext(); err != nil { // SUBJECT -> RUN
		return nil, err
	}
	batch := m.runner.NewBatch(subject)
	if err := batch.Add(refs...); err != nil {
		return nil, err
	}
	entities, err := batch.Process()
	if err != nil {
		return nil, err
	}

	if err := process.TransitionToNext(); err != nil { // RUN -> TABULATE
		return nil, err
	}
	table := tabulate(entities)

	if err := process.TransitionToNext(); err != nil { // TABULATE -> RENDER
		return nil, err
	}
	return table, nil
}

// Invokable exposes the command module's own callable methods (eg. for a
// future `{{ command.run(ref) }}` subquery nested inside another
// command) through a methodTable. It is the only built-in module that
// answers methodInvoker.Invoke.
func (m *Module) Invokable(name string) (invokable, bool) {
	t := methodTable{
		"run": func(args ...string) (any, error) {
			batch := m.runner.NewBatch([]string{"id"})
			if err := batch.Add(args...); err != nil {
				return nil, err
			}
			return batch.Process()
		},
	}
	fn, ok := t[name]
	return fn, ok
}
