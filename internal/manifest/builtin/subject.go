package builtin

import (
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/manifest"
)

type subjectsModule struct{}

// Subjects returns a factory for the `subjects` context module: it merges
// every active context's options into the item's tag set and records the
// resulting names under item.Extra["subjects"].
func Subjects() manifest.Factory {
	return func() manifest.ContextModule { return &subjectsModule{} }
}

func (m *subjectsModule) ContextType() string { return "subjects" }

func (m *subjectsModule) OnDeclareItem(contexts []*manifest.Context, item *manifest.Item) error {
	seen := map[string]bool{}
	var subjects []string
	for _, ctx := range contexts {
		for _, name := range ctx.Opts.Names() {
			if !seen[name] {
				seen[name] = true
				subjects = append(subjects, name)
			}
			if v, ok := ctx.Opts.Get(name); ok {
				v := v
				item.Tags.Set(name, &v)
			} else {
				item.Tags.Add(name)
			}
		}
	}
	item.Extra["subjects"] = subjects
	return nil
}

type subjectModule struct{}

// Subject returns a factory for the `subject` context module: it requires
// an `id` tag (unless a `__`-prefixed escape tag is present) and records
// the item's id and its declared `/ref`-style dependencies. May apply at
// the top level of the manifest.
func Subject() manifest.Factory {
	return func() manifest.ContextModule { return &subjectModule{} }
}

func (m *subjectModule) ContextType() string { return "subject" }
func (m *subjectModule) CanBeRoot() bool      { return true }

func (m *subjectModule) OnDeclareItem(_ []*manifest.Context, item *manifest.Item) error {
	item.Tags.Add("subject")
	if hasEscapeTag(item) {
		return nil
	}

	id, ok := item.Tags.Get("id")
	if !ok {
		return errs.New(errs.ManifestError, "@subject %q missing 'id' tag", item.Ref)
	}
	item.Extra["id"] = id

	var deps []string
	for name, value := range item.Tags.Raw() {
		if value == nil && strings.HasPrefix(name, "/") {
			deps = append(deps, strings.TrimPrefix(name, "/"))
		}
	}
	item.Extra[dependenciesKey] = deps
	return nil
}

type primarySubjectModule struct {
	current *string
}

// PrimarySubject returns a factory for the `primary-subject` context
// module: the context's sole option key names the primary subject tag for
// every item declared within it. Nesting is forbidden.
func PrimarySubject() manifest.Factory {
	return func() manifest.ContextModule { return &primarySubjectModule{} }
}

func (m *primarySubjectModule) ContextType() string { return "primary-subject" }

func (m *primarySubjectModule) OnEnterContext(ctx *manifest.Context) error {
	names := ctx.Opts.Names()
	if len(names) == 0 {
		return errs.New(errs.ManifestError, "@primary-subject context must be given exactly one option")
	}
	if m.current != nil {
		return errs.New(errs.ManifestError,
			"can only have one nested @primary-subject context: tried to nest %q inside %q", names[0], *m.current)
	}
	m.current = &names[0]
	return nil
}

func (m *primarySubjectModule) OnExitContext(*manifest.Context, map[string]*manifest.Item, map[string]*manifest.ItemSet) error {
	m.current = nil
	return nil
}

func (m *primarySubjectModule) OnDeclareItem(_ []*manifest.Context, item *manifest.Item) error {
	item.Extra["primarySubject"] = *m.current
	return nil
}
