// Package logmod provides the `log` orchestrator module: it builds the
// shared structured logger other modules upgrade to once it has run,
// verbosity controlled by LIMAR_LOG_LEVEL.
package logmod

import (
	"github.com/papapumpkin/limar/internal/config"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/orchestrator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module is the `log` orchestrator module. It has no dependencies, so the
// lifecycle configures/starts it ahead of anything that depends on it --
// matching the log/cache/runner ordering example modules are expected to
// follow.
type Module struct {
	levelVar string
	log      *zap.SugaredLogger
}

// New creates a log module defaulting to a no-op logger until Configure
// runs.
func New() *Module {
	return &Module{log: zap.NewNop().Sugar()}
}

func (m *Module) ConfigureEnv(env *config.EnvironmentParser, _ *config.EnvironmentParser) {
	env.VarDefault("level", "info")
	m.levelVar = env.FullName("level")
}

func (m *Module) Configure(o *orchestrator.Orchestrator, env *config.Env, _ *orchestrator.Args) error {
	levelStr, _ := env.String(m.levelVar)
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(levelStr)); err != nil {
		return errs.Wrap(errs.ConfigError, err, "parsing log level %q", levelStr)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return errs.Wrap(errs.InternalError, err, "building logger")
	}
	m.log = logger.Sugar()
	return nil
}

// Logger exposes the configured logger to any module that resolves this
// one as a dependency and looks it up via Orchestrator.Invoke("log").
func (m *Module) Logger() *zap.SugaredLogger { return m.log }
