package builtin

import "github.com/papapumpkin/limar/internal/manifest"

// CacheConfig is the `{enabled, retention}` record attached to every item
// by the `cache` context module.
type CacheConfig struct {
	Enabled   bool
	Retention string
}

const cacheKey = "cache"
const dependenciesKey = "dependencies"

type cacheModule struct{}

// Cache returns a factory for the `cache` context module: it resolves each
// item's effective cache configuration from the nearest enclosing options,
// then, once the whole manifest is known, ANDs `enabled` down through each
// item's transitive dependencies.
func Cache() manifest.Factory {
	return func() manifest.ContextModule { return &cacheModule{} }
}

func (m *cacheModule) ContextType() string { return "cache" }

func (m *cacheModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	cfg := CacheConfig{Enabled: true, Retention: "batch"}

	for i := len(contexts) - 1; i >= 0; i-- {
		opts := contexts[i].Opts
		hasEnabled, hasDisabled := opts.Has("enabled"), opts.Has("disabled")
		if hasEnabled || hasDisabled {
			cfg.Enabled = !hasDisabled // disabled takes precedence
			break
		}
	}

	for i := len(contexts) - 1; i >= 0; i-- {
		if v, ok := contexts[i].Opts.Get("retention"); ok {
			cfg.Retention = v
			break
		}
	}

	item.Extra[cacheKey] = cfg
	return nil
}

func (m *cacheModule) OnExitManifest(items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	memo := map[string]bool{}
	var effective func(ref string, visiting map[string]bool) bool
	effective = func(ref string, visiting map[string]bool) bool {
		if v, ok := memo[ref]; ok {
			return v
		}
		if visiting[ref] {
			return true // cycle: treat as cacheable, the dependency graph owns cycle reporting
		}
		visiting[ref] = true
		defer delete(visiting, ref)

		item, ok := items[ref]
		if !ok {
			return false
		}
		cfg, ok := item.Extra[cacheKey].(CacheConfig)
		if !ok {
			memo[ref] = false
			return false
		}

		enabled := cfg.Enabled
		if deps, ok := item.Extra[dependenciesKey].([]string); ok {
			for _, dep := range deps {
				enabled = enabled && effective(dep, visiting)
			}
		}
		memo[ref] = enabled
		return enabled
	}

	for ref, item := range items {
		if _, ok := item.Extra[invocationKey]; !ok {
			continue
		}
		cfg, ok := item.Extra[cacheKey].(CacheConfig)
		if !ok {
			continue
		}
		cfg.Enabled = effective(ref, map[string]bool{})
		item.Extra[cacheKey] = cfg
	}
	return nil
}
