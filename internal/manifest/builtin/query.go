package builtin

import (
	"github.com/papapumpkin/limar/internal/command"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

type queryModule struct {
	current *Invocation
}

// Query returns a factory for the `query` context module: a read-only,
// idempotent command that must declare a result-shaping `parse`
// expression. Nesting a second @query inside one is forbidden.
func Query() manifest.Factory {
	return func() manifest.ContextModule { return &queryModule{} }
}

func (m *queryModule) ContextType() string { return "query" }

func (m *queryModule) OnEnterContext(ctx *manifest.Context) error {
	raw, ok := ctx.Opts.Get("command")
	if !ok {
		return errs.New(errs.ManifestError, "@query context must be given a `command` to execute")
	}
	if m.current != nil {
		return errs.New(errs.ManifestError, "can only have one nested @query context")
	}

	cmd, err := command.Parse(raw)
	if err != nil {
		return err
	}
	parse, ok := ctx.Opts.Get("parse")
	if !ok {
		return errs.New(errs.ManifestError, "@query context must be given a `parse` expression")
	}
	m.current = &Invocation{Kind: "query", Parse: parse, Cmd: cmd}
	return nil
}

func (m *queryModule) OnExitContext(*manifest.Context, map[string]*manifest.Item, map[string]*manifest.ItemSet) error {
	m.current = nil
	return nil
}

func (m *queryModule) OnDeclareItem(_ []*manifest.Context, item *manifest.Item) error {
	item.Tags.Add("query")
	item.Extra[invocationKey] = m.current
	return nil
}
