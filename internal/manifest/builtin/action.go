package builtin

import "github.com/papapumpkin/limar/internal/manifest"

type actionModule struct{}

// Action returns a factory for the `action` context module: it marks an
// already-declared command (from an enclosing @command or @query) as a
// mutating action, and may override its parse expression from the nearest
// enclosing context that declares one.
func Action() manifest.Factory {
	return func() manifest.ContextModule { return &actionModule{} }
}

func (m *actionModule) ContextType() string { return "action" }

func (m *actionModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	item.Tags.Add("action")

	inv, _ := item.Extra[invocationKey].(*Invocation)
	if inv == nil {
		inv = &Invocation{}
		item.Extra[invocationKey] = inv
	}
	inv.Kind = "action"

	for i := len(contexts) - 1; i >= 0; i-- {
		if v, ok := contexts[i].Opts.Get("parse"); ok {
			inv.Parse = v
			break
		}
	}
	return nil
}
