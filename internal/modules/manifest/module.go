// Package manifestmod provides the `manifest` orchestrator module: it reads
// the manifest file named by LIMAR_MANIFEST_PATH and parses it with every
// built-in context module registered, exposing the result to any module
// that depends on it (eg. the command module).
package manifestmod

import (
	"os"

	"github.com/papapumpkin/limar/internal/config"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
	"github.com/papapumpkin/limar/internal/manifest/builtin"
	"github.com/papapumpkin/limar/internal/orchestrator"
	"go.uber.org/zap"
)

// Module is the `manifest` orchestrator module.
type Module struct {
	log     *zap.SugaredLogger
	pathVar string
	parsed  *manifest.Manifest
}

// New creates an unconfigured manifest module.
func New() *Module {
	return &Module{log: zap.NewNop().Sugar()}
}

func (m *Module) Dependencies() []string { return []string{"log"} }

func (m *Module) ConfigureEnv(env *config.EnvironmentParser, _ *config.EnvironmentParser) {
	env.Var("path")
	m.pathVar = env.FullName("path")
}

// Configure reads and parses the manifest file. It upgrades to the `log`
// module's configured logger when one is registered, which runs ahead of
// it in dependency order.
func (m *Module) Configure(o *orchestrator.Orchestrator, env *config.Env, _ *orchestrator.Args) error {
	if mod, err := o.Invoke("log"); err == nil {
		if lg, ok := mod.(interface{ Logger() *zap.SugaredLogger }); ok {
			m.log = lg.Logger()
		}
	}

	path, _ := env.String(m.pathVar)
	if path == "" {
		return errs.New(errs.ConfigError, "manifest path not set (expected %s)", m.pathVar)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ConfigError, err, "reading manifest file %q", path)
	}

	parsed := manifest.New()
	for _, f := range builtin.All() {
		parsed.Register(f)
	}
	if err := parsed.Parse(string(src)); err != nil {
		return err
	}
	m.parsed = parsed
	m.log.Debugw("parsed manifest", "path", path, "items", len(parsed.Items), "item_sets", len(parsed.ItemSets))
	return nil
}

// Parsed returns the fully parsed manifest. Valid only after Configure has
// run.
func (m *Module) Parsed() *manifest.Manifest { return m.parsed }
