// Package rendermod provides the `render` orchestrator module: it prints
// whatever entity table the previous `->`-chained module produced and
// forwards it unchanged, so it can sit anywhere in a chain without
// breaking later consumers.
package rendermod

import (
	"fmt"

	cmdmodule "github.com/papapumpkin/limar/internal/modules/command"
	"github.com/papapumpkin/limar/internal/config"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/orchestrator"
	"github.com/papapumpkin/limar/internal/render"
)

// Module is the `render` orchestrator module.
type Module struct{}

// New creates a render module.
func New() *Module { return &Module{} }

// Run prints forwardData (expected to be a modules/command.Table, the
// shape the command module's TABULATE phase produces) and passes it
// through unchanged.
func (m *Module) Run(_ *orchestrator.Orchestrator, _ *config.Env, _ *orchestrator.Args, forwardData any) (any, error) {
	table, ok := forwardData.(cmdmodule.Table)
	if !ok {
		return nil, errs.New(errs.CommandRunError, "render invoked with no table to render (got %T)", forwardData)
	}
	fmt.Print(render.Text(render.Table{Columns: table.Columns, Rows: table.Rows}))
	return table, nil
}
