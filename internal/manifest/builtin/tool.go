package builtin

import (
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

type toolModule struct {
	current     *string
	currentOpts *manifest.Context
}

// Tool returns a factory for the `tool` context module: it forbids nested
// @tool contexts and attaches the enclosing tool command to every item
// declared within one.
func Tool() manifest.Factory {
	return func() manifest.ContextModule { return &toolModule{} }
}

func (m *toolModule) ContextType() string { return "tool" }

func (m *toolModule) OnEnterContext(ctx *manifest.Context) error {
	if m.current != nil {
		return errs.New(errs.ManifestError,
			"can only have one nested @tool context: tried to nest a context inside tool %q", *m.current)
	}
	cmd, ok := ctx.Opts.Get("command")
	if !ok {
		return errs.New(errs.ManifestError, "@tool context must be given a `command`")
	}
	m.current = &cmd
	m.currentOpts = ctx
	return nil
}

func (m *toolModule) OnExitContext(*manifest.Context, map[string]*manifest.Item, map[string]*manifest.ItemSet) error {
	m.current = nil
	m.currentOpts = nil
	return nil
}

func (m *toolModule) OnDeclareItem(_ []*manifest.Context, item *manifest.Item) error {
	cmd := *m.current
	item.Tags.Set("tool", &cmd)
	item.Extra["tool"] = cmd
	return nil
}
