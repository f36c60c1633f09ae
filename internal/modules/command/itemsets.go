// Package cmdmodule wires the command engine (internal/command) into the
// module orchestrator (internal/orchestrator) as the `command` module: it
// bridges parsed manifest items into the runner's subject/command item
// sets, owns the on-disk cache, and dispatches `-c` invocations
// (positional arguments select the subject fields) through the
// GET/SUBJECT/RUN/TABULATE/RENDER phase system.
// Grounded on modules/command.py's CommandModule in the LIMAR original.
package cmdmodule

import (
	"github.com/papapumpkin/limar/internal/command"
	"github.com/papapumpkin/limar/internal/dag"
	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
	"github.com/papapumpkin/limar/internal/manifest/builtin"
)

// Item.Extra keys set by the manifest's built-in context modules
// (internal/manifest/builtin), repeated here rather than exported there
// since they're plain string literals, not shared constants.
const (
	extraInvocation   = "command"
	extraCache        = "cache"
	extraDependencies = "dependencies"
	extraID           = "id"
)

// buildItemSets projects every parsed manifest item tagged `subject` into
// a command.SubjectItem, and every item tagged `command`/`query`/`action`
// (carrying a *builtin.Invocation) into a command.CommandItem, resolving
// each command item's transitive dependency/dependant closure via the
// same dependency refs the `subject` context module records.
func buildItemSets(m *manifest.Manifest) (map[string]command.SubjectItem, map[string]*command.CommandItem, error) {
	subjects := map[string]command.SubjectItem{}
	items := map[string]*command.CommandItem{}

	g := dag.New()
	for ref := range m.Items {
		_ = g.AddNode(ref, 0)
	}
	for ref, item := range m.Items {
		deps, _ := item.Extra[extraDependencies].([]string)
		for _, dep := range deps {
			if _, ok := m.Items[dep]; !ok {
				continue
			}
			if err := g.AddEdge(ref, dep); err != nil {
				return nil, nil, errs.Wrap(errs.ManifestError, err, "resolving dependencies of item %q", ref)
			}
		}
	}

	for ref, item := range m.Items {
		if item.Tags.Has("subject") {
			id, _ := item.Extra[extraID].(string)
			subjects[ref] = command.SubjectItem{Ref: ref, ID: id}
		}

		inv, ok := item.Extra[extraInvocation].(*builtin.Invocation)
		if !ok || inv.Cmd == nil {
			continue
		}

		kind := inv.Kind
		if kind == "" {
			// A bare @command declaration (neither @query nor @action) has no
			// result worth forwarding: treat it the same way as an action
			// with no parse expression.
			kind = "action"
		}

		deps, _ := item.Extra[extraDependencies].([]string)
		var cacheEnabled bool
		var cacheRetention string
		if cfg, ok := item.Extra[extraCache].(builtin.CacheConfig); ok {
			cacheEnabled, cacheRetention = cfg.Enabled, cfg.Retention
		}

		items[ref] = &command.CommandItem{
			Ref:                    ref,
			Kind:                   kind,
			Cmd:                    inv.Cmd,
			ParseExpr:              inv.Parse,
			Dependencies:           deps,
			TransitiveDependencies: g.Ancestors(ref),
			TransitiveDependants:   g.Descendants(ref),
			CacheEnabled:           cacheEnabled,
			CacheRetention:         cacheRetention,
		}
	}

	return subjects, items, nil
}
