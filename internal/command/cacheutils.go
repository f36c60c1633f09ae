package command

import (
	"encoding/json"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/store"
)

// CacheUtils wraps a persistent Store with the key-naming and
// compute-or-fetch convention the command runner and batch use for
// memoizing query/action output. Grounded on
// modules/command_utils/cache_utils.py in the LIMAR original; ported to
// cache via JSON rather than pickle, since command output is
// dynamically-shaped (jq/pq transform results) and Go's gob codec needs
// every concrete type registered up front to decode into `any` -- the
// store's own SetBytes/GetBytes raw path exists precisely for callers like
// this that want to pick their own encoding at the boundary.
type CacheUtils struct {
	store    *store.Store
	disabled bool
}

// NewCacheUtils wraps s for command-output caching.
func NewCacheUtils(s *store.Store) *CacheUtils {
	return &CacheUtils{store: s}
}

// Disable turns WithCaching into a pure passthrough (fn always runs, its
// result is never stored or fetched), for a one-off --no-cache invocation
// without discarding the opened store. Mirrors CacheUtils.is_enabled in
// the original, which short-circuits to "run it" when caching is off.
func (c *CacheUtils) Disable() { c.disabled = true }

// Key builds a cache key from parts, joined with '.' and with any '/'
// replaced by '.' so a key is always a single flat path segment.
func (c *CacheUtils) Key(parts ...string) string {
	return strings.ReplaceAll(strings.Join(parts, "."), "/", ".")
}

// WithCaching returns the cached value under key if present, otherwise
// calls fn, caches its result, and evicts every key in invalidateOnRun
// (the transitive dependants of the freshly (re)computed key).
func (c *CacheUtils) WithCaching(key string, fn func() (any, error), invalidateOnRun []string) (any, error) {
	if c.disabled {
		return fn()
	}
	if raw, err := c.store.GetBytes(key); err == nil {
		var out any
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
			return out, nil
		}
	}

	out, err := fn()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "encoding cache value for key %q", key)
	}
	if err := c.store.SetBytes(key, raw); err != nil {
		return nil, err
	}
	for _, invalidKey := range invalidateOnRun {
		c.store.Remove(invalidKey)
	}
	return out, nil
}

// Delete evicts every given key from the store.
func (c *CacheUtils) Delete(keys ...string) {
	for _, key := range keys {
		c.store.Remove(key)
	}
}
