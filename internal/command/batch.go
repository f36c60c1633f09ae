package command

import (
	"container/heap"

	"github.com/papapumpkin/limar/internal/dag"
	"github.com/papapumpkin/limar/internal/errs"
)

// topoOrderCommandItems orders every command item so that a ref always
// comes after the items it depends on. Dependencies pointing outside the
// command item set (eg. at a plain subject) are ignored, matching the
// original's dependency_graph, which is built only from command items.
func topoOrderCommandItems(items map[string]*CommandItem) ([]string, error) {
	g := dag.New()
	for ref := range items {
		_ = g.AddNode(ref, 0)
	}
	for ref, item := range items {
		for _, dep := range item.Dependencies {
			if _, ok := items[dep]; !ok {
				continue
			}
			if err := g.AddEdge(ref, dep); err != nil {
				return nil, errs.Wrap(errs.CommandRunError, err, "resolving dependencies for command %q", ref)
			}
		}
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "cannot resolve dependencies while running commands due to a cycle")
	}
	return order, nil
}

// batchEntry is one queued command run, ordered by its position in the
// runner's dependency-resolved order so dependencies always run first.
type batchEntry struct {
	order int
	ref   string
	item  *CommandItem
}

type batchQueue []batchEntry

func (q batchQueue) Len() int            { return len(q) }
func (q batchQueue) Less(i, j int) bool  { return q[i].order < q[j].order }
func (q batchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *batchQueue) Push(x any)         { *q = append(*q, x.(batchEntry)) }
func (q *batchQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[:n-1]
	return entry
}

// Batch accumulates a set of directly-requested command refs, along with
// their cacheable transitive dependencies, and runs them in dependency
// order, merging their output by subject. Grounded on modules/command.py's
// CommandBatch in the LIMAR original.
type Batch struct {
	runner  *Runner
	subject []string

	queue             batchQueue
	directlyRequested map[string]bool
	cacheable         map[string]bool
}

func newBatch(subject []string, r *Runner) *Batch {
	return &Batch{
		runner:            r,
		subject:           subject,
		directlyRequested: map[string]bool{},
		cacheable:         map[string]bool{},
	}
}

// Add queues the commands for every given ref. Cacheable transitive
// dependencies are queued too (without duplicates), ahead of whatever
// directly depends on them, so caches invalidate and regenerate in
// dependency order. Must not be called while Process is running.
func (b *Batch) Add(refs ...string) error {
	for _, ref := range refs {
		if b.directlyRequested[ref] {
			continue
		}
		b.directlyRequested[ref] = true

		item, ok := b.runner.items[ref]
		if !ok {
			return errs.New(errs.CommandRunError, "no such command %q", ref)
		}

		isCacheable := item.CacheEnabled
		if !isCacheable || !b.cacheable[ref] {
			b.enqueue(ref, item)
		}
		if isCacheable {
			b.cacheable[ref] = true
		}

		for _, depRef := range item.TransitiveDependencies {
			depItem, ok := b.runner.items[depRef]
			if !ok {
				continue
			}
			if depItem.CacheEnabled && !b.cacheable[depRef] {
				b.enqueue(depRef, depItem)
				b.cacheable[depRef] = true
			}
		}
	}
	return nil
}

func (b *Batch) enqueue(ref string, item *CommandItem) {
	heap.Push(&b.queue, batchEntry{order: b.runner.index[ref], ref: ref, item: item})
}

// Process runs every queued command (or fetches its cached output) and
// returns the directly-requested commands' output merged by subject. Must
// be called synchronously: no concurrent Add/Process on this or any other
// batch sharing the same cache.
func (b *Batch) Process() (map[string]Entity, error) {
	var outputs []Entity
	var batchRetained []string

	for b.queue.Len() > 0 {
		entry := heap.Pop(&b.queue).(batchEntry)
		ref, item := entry.ref, entry.item

		if item.CacheEnabled && item.CacheRetention == "batch" {
			batchRetained = append(batchRetained, ref)
		}

		out, err := b.runOrFetch(ref, item)
		if err != nil {
			return nil, err
		}
		if b.directlyRequested[ref] && out != nil {
			outputs = append(outputs, asEntities(out)...)
		}
	}

	b.directlyRequested = map[string]bool{}
	b.cacheable = map[string]bool{}
	if len(batchRetained) > 0 {
		keys := make([]string, len(batchRetained))
		for i, ref := range batchRetained {
			keys[i] = b.keyForRef(ref)
		}
		b.runner.cache.Delete(keys...)
	}

	return MergeEntities(outputs, b.subject), nil
}

func (b *Batch) runOrFetch(ref string, item *CommandItem) (any, error) {
	run := func() (any, error) {
		if item.Kind == "action" {
			return b.runner.RunAction(ref, item)
		}
		return b.runner.RunQuery(ref, item)
	}
	if !item.CacheEnabled {
		return run()
	}

	invalidate := make([]string, len(item.TransitiveDependants))
	for i, dep := range item.TransitiveDependants {
		invalidate[i] = b.keyForRef(dep)
	}
	return b.runner.cache.WithCaching(b.keyForRef(ref), run, invalidate)
}

func (b *Batch) keyForRef(ref string) string {
	return b.runner.cache.Key(b.runner.items[ref].Kind, ref)
}

// asEntities normalises a query/action result into a list of entities: a
// single entity, a list of entities, or nothing (for nil/unrecognised
// shapes, discarded with no error since not every action produces output).
func asEntities(v any) []Entity {
	switch t := v.(type) {
	case nil:
		return nil
	case Entity:
		return []Entity{t}
	case []any:
		out := make([]Entity, 0, len(t))
		for _, item := range t {
			if e, ok := item.(Entity); ok {
				out = append(out, e)
			}
		}
		return out
	default:
		return nil
	}
}
