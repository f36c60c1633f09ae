// Package builtin provides the manifest's built-in context modules: tags,
// tool/query/action, command, cache, subjects/subject/primary-subject, and
// uris_local/uris_remote. Ported from modules/manifest_modules/*.py in the
// LIMAR original.
package builtin

import "github.com/papapumpkin/limar/internal/manifest"

type tagsModule struct{}

// Tags returns a factory for the `tags` context module: it merges every
// active context's options into each declared item's tag set.
func Tags() manifest.Factory {
	return func() manifest.ContextModule { return &tagsModule{} }
}

func (m *tagsModule) ContextType() string { return "tags" }

func (m *tagsModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	for _, ctx := range contexts {
		for _, name := range ctx.Opts.Names() {
			if v, ok := ctx.Opts.Get(name); ok {
				v := v
				item.Tags.Set(name, &v)
			} else {
				item.Tags.Add(name)
			}
		}
	}
	return nil
}
