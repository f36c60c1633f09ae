package builtin

import (
	"path"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

type urisLocalModule struct {
	declared map[string]bool
}

// UrisLocal returns a factory for the local half of the `uris` context
// module: it computes an absolute local path for each item, from the
// nearest enclosing `local` option if one is absolute, defaulting to the
// item's ref, and validates the result on exit-manifest.
func UrisLocal() manifest.Factory {
	return func() manifest.ContextModule { return &urisLocalModule{declared: map[string]bool{}} }
}

func (m *urisLocalModule) ContextType() string { return "uris" }

func (m *urisLocalModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	if _, ok := item.Extra["path"]; !ok {
		item.Extra["path"] = item.Ref
	}
	for i := len(contexts) - 1; i >= 0; i-- {
		local, ok := contexts[i].Opts.Get("local")
		if !ok || !strings.HasPrefix(local, "/") {
			continue
		}
		item.Extra["path"] = path.Join(local, item.Ref)
		break
	}
	return nil
}

func (m *urisLocalModule) OnExitContext(_ *manifest.Context, items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for ref := range items {
		m.declared[ref] = true
	}
	return nil
}

func (m *urisLocalModule) OnExitManifest(items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for ref := range m.declared {
		item, ok := items[ref]
		if !ok {
			continue
		}
		p, ok := item.Extra["path"].(string)
		if !ok {
			return errs.New(errs.ManifestError, "path of item %q not defined (required by @uris context)", ref)
		}
		if !strings.HasPrefix(p, "/") {
			return errs.New(errs.ManifestError, "path of item %q not absolute (required by @uris context)", ref)
		}
	}
	return nil
}

type urisRemoteModule struct {
	declared map[string]bool
}

// UrisRemote returns a factory for the remote half of the `uris` context
// module: it computes an HTTP(S) remote URL for each item, from the
// nearest enclosing `remote` option if it is itself HTTP(S), defaulting to
// the item's ref, and validates the result on exit-manifest.
func UrisRemote() manifest.Factory {
	return func() manifest.ContextModule { return &urisRemoteModule{declared: map[string]bool{}} }
}

func (m *urisRemoteModule) ContextType() string { return "uris" }

func (m *urisRemoteModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	if _, ok := item.Extra["remote"]; !ok {
		item.Extra["remote"] = item.Ref
	}
	for i := len(contexts) - 1; i >= 0; i-- {
		remote, ok := contexts[i].Opts.Get("remote")
		if !ok || !isHTTPURL(remote) {
			continue
		}
		item.Extra["remote"] = strings.TrimSuffix(remote, "/") + "/" + item.Ref
		break
	}
	return nil
}

func (m *urisRemoteModule) OnExitContext(_ *manifest.Context, items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for ref := range items {
		m.declared[ref] = true
	}
	return nil
}

func (m *urisRemoteModule) OnExitManifest(items map[string]*manifest.Item, _ map[string]*manifest.ItemSet) error {
	for ref := range m.declared {
		item, ok := items[ref]
		if !ok {
			continue
		}
		remote, ok := item.Extra["remote"].(string)
		if !ok || !isHTTPURL(remote) {
			return errs.New(errs.ManifestError, "remote of item %q not a valid HTTP(S) URL (required by @uris context)", ref)
		}
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
