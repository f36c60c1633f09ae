// Package manifest parses the declarative manifest DSL (items, item-sets,
// and nested contexts) and walks the resulting tree, dispatching lifecycle
// hooks to registered context modules, matching modules/manifest.py and
// modules/manifest_modules/* in the LIMAR original.
package manifest

// Item is a single declared entity: a ref plus a tag set, plus whatever
// extra fields context modules choose to attach (command ASTs, resolved
// paths, subject ids, and so on).
type Item struct {
	Ref   string
	Tags  *Tags
	Extra map[string]any
}

func newItem(ref string, m *Manifest) *Item {
	item := &Item{Ref: ref, Extra: map[string]any{}}
	item.Tags = newTags(item, m)
	return item
}

// Tags is the tag facade for a single item: mutating it keeps the owning
// Manifest's implicit per-tag item-sets consistent with the item's tag set.
type Tags struct {
	item     *Item
	manifest *Manifest
	values   map[string]*string
	order    []string
}

func newTags(item *Item, m *Manifest) *Tags {
	return &Tags{item: item, manifest: m, values: map[string]*string{}}
}

// Has reports whether name is present in the tag set, regardless of value.
func (t *Tags) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Get returns the tag's value and whether it has a non-nil value. A tag
// that is present with no value (a bare tag) reports ok=false.
func (t *Tags) Get(name string) (string, bool) {
	v, present := t.values[name]
	if !present || v == nil {
		return "", false
	}
	return *v, true
}

// Add sets a bare tag (no value), indexing the item into the implicit
// tag-named item-set if this is a new tag.
func (t *Tags) Add(name string) { t.Set(name, nil) }

// Set assigns value (nil for a bare tag) to name, indexing the item into
// the implicit tag-named item-set if this is a new tag.
func (t *Tags) Set(name string, value *string) {
	_, existed := t.values[name]
	t.values[name] = value
	if !existed {
		t.order = append(t.order, name)
		t.manifest.indexTag(t.item, name)
	}
}

// Remove deletes name from the tag set, removing the item from the
// implicit tag-named item-set.
func (t *Tags) Remove(name string) {
	if _, ok := t.values[name]; !ok {
		return
	}
	delete(t.values, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.manifest.unindexTag(t.item, name)
}

// Names returns tag names in declaration order.
func (t *Tags) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Raw exposes the underlying name->value map, for modules (such as the
// command context module) that need to scan for `__`-prefixed escape tags.
func (t *Tags) Raw() map[string]*string { return t.values }

// ItemSet is an order-preserving set of items, closed under And/Or.
type ItemSet struct {
	order []string
	items map[string]*Item
}

// NewItemSet creates an empty item-set.
func NewItemSet() *ItemSet {
	return &ItemSet{items: map[string]*Item{}}
}

// Add inserts item, a no-op if its ref is already a member.
func (s *ItemSet) Add(item *Item) {
	if _, ok := s.items[item.Ref]; ok {
		return
	}
	s.order = append(s.order, item.Ref)
	s.items[item.Ref] = item
}

// Remove deletes the item with the given ref, a no-op if absent.
func (s *ItemSet) Remove(ref string) {
	if _, ok := s.items[ref]; !ok {
		return
	}
	delete(s.items, ref)
	for i, r := range s.order {
		if r == ref {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Has reports whether ref is a member.
func (s *ItemSet) Has(ref string) bool {
	_, ok := s.items[ref]
	return ok
}

// Get returns the member item with the given ref, if any.
func (s *ItemSet) Get(ref string) (*Item, bool) {
	item, ok := s.items[ref]
	return item, ok
}

// Items returns the members in insertion order.
func (s *ItemSet) Items() []*Item {
	out := make([]*Item, len(s.order))
	for i, ref := range s.order {
		out[i] = s.items[ref]
	}
	return out
}

// Len returns the number of members.
func (s *ItemSet) Len() int { return len(s.order) }

// And returns the intersection of s and other, ordered by s's order.
func (s *ItemSet) And(other *ItemSet) *ItemSet {
	result := NewItemSet()
	for _, ref := range s.order {
		if other.Has(ref) {
			result.Add(s.items[ref])
		}
	}
	return result
}

// Or returns the union of s and other: s's order, then other's members not
// already present, in other's order.
func (s *ItemSet) Or(other *ItemSet) *ItemSet {
	result := NewItemSet()
	for _, ref := range s.order {
		result.Add(s.items[ref])
	}
	for _, ref := range other.order {
		result.Add(other.items[ref])
	}
	return result
}
