package builtin

import (
	"strings"

	"github.com/papapumpkin/limar/internal/command"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

type commandModule struct {
	current *Invocation
}

// Command returns a factory for the `command` context module: it parses a
// plain (non-query, non-action) command declaration and may apply at the
// top level of the manifest as well as inside an explicit @command
// context.
func Command() manifest.Factory {
	return func() manifest.ContextModule { return &commandModule{} }
}

func (m *commandModule) ContextType() string { return "command" }
func (m *commandModule) CanBeRoot() bool     { return true }

func (m *commandModule) OnEnterContext(ctx *manifest.Context) error {
	if len(ctx.Opts.Names()) == 0 {
		return nil // a grouping/requirement context, not a declaration
	}
	raw, ok := ctx.Opts.Get("command")
	if !ok {
		return errs.New(errs.ManifestError, "a declaration @command context must be given a `command` to execute")
	}
	if m.current != nil {
		return errs.New(errs.ManifestError, "can only have one nested @command context")
	}

	cmd, err := command.Parse(raw)
	if err != nil {
		return err
	}
	m.current = &Invocation{Cmd: cmd}
	return nil
}

func (m *commandModule) OnExitContext(*manifest.Context, map[string]*manifest.Item, map[string]*manifest.ItemSet) error {
	m.current = nil
	return nil
}

func (m *commandModule) OnDeclareItem(_ []*manifest.Context, item *manifest.Item) error {
	// Only real @command declarations (m.current != nil) mark the item;
	// can_be_root lets @command appear unnested at the top level, not
	// every bare item implicitly carry one.
	if m.current == nil {
		return nil
	}
	item.Tags.Add("command")
	item.Extra[invocationKey] = m.current
	return nil
}

func (m *commandModule) OnExitManifest(items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for _, item := range items {
		if !item.Tags.Has("command") {
			continue
		}
		if _, ok := item.Extra[invocationKey]; ok {
			continue
		}
		if hasEscapeTag(item) {
			continue
		}
		return errs.New(errs.ManifestError,
			"@command context requires a command to be declared for item %q", item.Ref)
	}
	return nil
}

func hasEscapeTag(item *manifest.Item) bool {
	for name := range item.Tags.Raw() {
		if strings.HasPrefix(name, "__") {
			return true
		}
	}
	return false
}
