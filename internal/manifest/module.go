package manifest

// ContextModule is the minimal protocol every context module must satisfy.
// Modules declare the lifecycle hooks they care about by additionally
// implementing the optional interfaces below; the walker detects these via
// type assertion, the same optional-hook pattern used by the module
// orchestrator.
type ContextModule interface {
	ContextType() string
}

// RootCapable is implemented by modules that may also apply at the top
// level of the manifest, outside any `@type` scope.
type RootCapable interface {
	CanBeRoot() bool
}

// EnterManifestHook fires once, before the manifest's top-level body is
// walked.
type EnterManifestHook interface {
	OnEnterManifest() error
}

// ExitManifestHook fires once, after the whole manifest has been walked.
// items and itemSets contain every item and item-set declared anywhere in
// the manifest.
type ExitManifestHook interface {
	OnExitManifest(items map[string]*Item, itemSets map[string]*ItemSet) error
}

// EnterContextHook fires when a context of this module's type is entered.
type EnterContextHook interface {
	OnEnterContext(ctx *Context) error
}

// ExitContextHook fires when a context of this module's type is exited.
// items and itemSets contain only those declared within that context's
// body, including inside contexts nested in it.
type ExitContextHook interface {
	OnExitContext(ctx *Context, items map[string]*Item, itemSets map[string]*ItemSet) error
}

// DeclareItemHook fires whenever an item is declared, for every module
// registered against any context currently active (the full stack, not
// just the innermost). Root-capable modules count as active only while no
// known @type context is open. contexts is ordered outermost-first.
type DeclareItemHook interface {
	OnDeclareItem(contexts []*Context, item *Item) error
}

// DeclareItemSetHook fires whenever an item-set is declared, for every
// module registered against any context currently active.
type DeclareItemSetHook interface {
	OnDeclareItemSet(contexts []*Context, ref string, set *ItemSet) error
}

// Factory constructs a fresh ContextModule instance. The walker calls each
// registered factory exactly once per parse, so a module's instance state
// (used eg. to forbid nesting of command-carrying contexts) spans the
// whole manifest, not just one context.
type Factory func() ContextModule
