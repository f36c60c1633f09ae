package manifest

import (
	"github.com/papapumpkin/limar/internal/errs"
)

// Manifest is the parsed result of a single manifest file: every declared
// item, keyed by ref, and every item-set (both explicitly named and the
// implicit ones indexed by tag name), keyed by name.
type Manifest struct {
	Items    map[string]*Item
	ItemSets map[string]*ItemSet

	factories []Factory
	instances []ContextModule
	byType    map[string][]ContextModule
}

// New creates an empty Manifest. Context modules must be registered with
// Register before Parse is called.
func New() *Manifest {
	return &Manifest{
		Items:    map[string]*Item{},
		ItemSets: map[string]*ItemSet{},
		byType:   map[string][]ContextModule{},
	}
}

// Register adds a context-module factory. Parse invokes every registered
// factory exactly once, so the resulting instance's state spans the whole
// walk of the manifest.
func (m *Manifest) Register(f Factory) {
	m.factories = append(m.factories, f)
}

func (m *Manifest) indexTag(item *Item, name string) {
	set, ok := m.ItemSets[name]
	if !ok {
		set = NewItemSet()
		m.ItemSets[name] = set
	}
	set.Add(item)
}

func (m *Manifest) unindexTag(item *Item, name string) {
	if set, ok := m.ItemSets[name]; ok {
		set.Remove(item.Ref)
	}
}

type tagPair struct {
	name  string
	value *string
}

// Parse lexes and walks src, populating m.Items and m.ItemSets and
// dispatching lifecycle hooks to every registered context module.
func (m *Manifest) Parse(src string) error {
	m.instances = nil
	m.byType = map[string][]ContextModule{}

	for _, f := range m.factories {
		inst := f()
		m.instances = append(m.instances, inst)
		typ := inst.ContextType()
		m.byType[typ] = append(m.byType[typ], inst)
		if rc, ok := inst.(RootCapable); ok && rc.CanBeRoot() {
			m.byType[rootContextType] = append(m.byType[rootContextType], inst)
		}
	}

	toks, err := lex(src)
	if err != nil {
		return errs.Wrap(errs.ManifestError, err, "lexing manifest")
	}

	root := newContext(rootContextType, newOptions(), nil)
	w := &walker{m: m, toks: toks, contextStack: []*Context{root}}

	if err := w.parseManifest(); err != nil {
		return errs.Wrap(errs.ManifestError, err, "parsing manifest")
	}
	return nil
}

type walker struct {
	m            *Manifest
	toks         []token
	pos          int
	contextStack []*Context
}

func (w *walker) peek() token { return w.toks[w.pos] }

func (w *walker) next() token {
	t := w.toks[w.pos]
	if t.kind != tokEOF {
		w.pos++
	}
	return t
}

func (w *walker) expect(k tokenKind) error {
	t := w.peek()
	if t.kind != k {
		return errs.New(errs.ManifestError, "expected %s on line %d, got %s %q", k, t.line, t.kind, t.text)
	}
	w.next()
	return nil
}

func (w *walker) expectIdent() (string, error) {
	t := w.peek()
	if t.kind != tokIdent {
		return "", errs.New(errs.ManifestError, "expected identifier on line %d, got %s", t.line, t.kind)
	}
	w.next()
	return t.text, nil
}

func (w *walker) skipNewlines() {
	for w.peek().kind == tokNewline {
		w.next()
	}
}

func (w *walker) skipSeparators() {
	for w.peek().kind == tokComma || w.peek().kind == tokNewline {
		w.next()
	}
}

func (w *walker) activeModules() []ContextModule {
	seen := map[ContextModule]bool{}
	var out []ContextModule
	for _, ctx := range w.contextStack {
		// Root-capable modules apply only outside every known @type scope.
		if ctx.IsRoot() && len(w.contextStack) > 1 {
			continue
		}
		for _, mod := range w.m.byType[ctx.Type] {
			if !seen[mod] {
				seen[mod] = true
				out = append(out, mod)
			}
		}
	}
	return out
}

func (w *walker) contextsSnapshot() []*Context {
	return append([]*Context(nil), w.contextStack...)
}

func (w *walker) parseManifest() error {
	for _, mod := range w.m.instances {
		if h, ok := mod.(EnterManifestHook); ok {
			if err := h.OnEnterManifest(); err != nil {
				return err
			}
		}
	}

	w.skipNewlines()
	for w.peek().kind != tokEOF {
		if err := w.parseDeclOrContext(); err != nil {
			return err
		}
		w.skipNewlines()
	}

	for _, mod := range w.m.instances {
		if h, ok := mod.(ExitManifestHook); ok {
			if err := h.OnExitManifest(w.m.Items, w.m.ItemSets); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) parseDeclOrContext() error {
	switch w.peek().kind {
	case tokAt:
		return w.parseContext()
	case tokIdent:
		return w.parseDecl()
	default:
		t := w.peek()
		return errs.New(errs.ManifestError, "expected a declaration or context on line %d, got %s", t.line, t.kind)
	}
}

func (w *walker) parseDecl() error {
	ref, err := w.expectIdent()
	if err != nil {
		return err
	}

	if w.peek().kind == tokEquals {
		w.next()
		set, err := w.parseExpr()
		if err != nil {
			return err
		}
		return w.declareItemSet(ref, set)
	}

	var tags []tagPair
	if w.peek().kind == tokLParen {
		w.next()
		tags, err = w.parseTagList()
		if err != nil {
			return err
		}
		if err := w.expect(tokRParen); err != nil {
			return err
		}
	}
	return w.declareItem(ref, tags)
}

func (w *walker) parseTagList() ([]tagPair, error) {
	var out []tagPair
	w.skipSeparators()
	for w.peek().kind == tokIdent {
		name := w.next().text
		var value *string
		if w.peek().kind == tokColon {
			w.next()
			v, err := w.parseValue()
			if err != nil {
				return nil, err
			}
			value = &v
		}
		out = append(out, tagPair{name: name, value: value})
		w.skipSeparators()
	}
	return out, nil
}

func (w *walker) parseValue() (string, error) {
	t := w.peek()
	if t.kind == tokString || t.kind == tokIdent {
		w.next()
		return t.text, nil
	}
	return "", errs.New(errs.ManifestError, "expected a tag value on line %d, got %s", t.line, t.kind)
}

func (w *walker) parseExpr() (*ItemSet, error) {
	left, err := w.parseTerm()
	if err != nil {
		return nil, err
	}
	for w.peek().kind == tokAmp || w.peek().kind == tokPipe {
		op := w.next().kind
		right, err := w.parseTerm()
		if err != nil {
			return nil, err
		}
		if op == tokAmp {
			left = left.And(right)
		} else {
			left = left.Or(right)
		}
	}
	return left, nil
}

func (w *walker) parseTerm() (*ItemSet, error) {
	t := w.peek()
	switch t.kind {
	case tokLParen:
		w.next()
		set, err := w.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := w.expect(tokRParen); err != nil {
			return nil, err
		}
		return set, nil
	case tokIdent:
		w.next()
		if set, ok := w.m.ItemSets[t.text]; ok {
			return set, nil
		}
		return NewItemSet(), nil
	default:
		return nil, errs.New(errs.ManifestError, "expected an item-set expression on line %d, got %s", t.line, t.kind)
	}
}

func (w *walker) parseContext() error {
	if err := w.expect(tokAt); err != nil {
		return err
	}
	typ, err := w.expectIdent()
	if err != nil {
		return err
	}

	var tags []tagPair
	if w.peek().kind == tokLParen {
		w.next()
		tags, err = w.parseTagList()
		if err != nil {
			return err
		}
		if err := w.expect(tokRParen); err != nil {
			return err
		}
	}
	if err := w.expect(tokLBrace); err != nil {
		return err
	}

	opts := newOptions()
	for _, p := range tags {
		opts.set(p.name, p.value)
	}

	mods, known := w.m.byType[typ]
	var ctx *Context
	if known {
		ctx = newContext(typ, opts, w.contextStack[len(w.contextStack)-1])
		w.contextStack = append(w.contextStack, ctx)
		for _, mod := range mods {
			if h, ok := mod.(EnterContextHook); ok {
				if err := h.OnEnterContext(ctx); err != nil {
					return err
				}
			}
		}
	}

	w.skipNewlines()
	for w.peek().kind != tokRBrace {
		if w.peek().kind == tokEOF {
			return errs.New(errs.ManifestError, "unterminated context %q: reached end of input", typ)
		}
		if err := w.parseDeclOrContext(); err != nil {
			return err
		}
		w.skipNewlines()
	}
	if err := w.expect(tokRBrace); err != nil {
		return err
	}

	if known {
		for _, mod := range mods {
			if h, ok := mod.(ExitContextHook); ok {
				if err := h.OnExitContext(ctx, ctx.Items, ctx.ItemSets); err != nil {
					return err
				}
			}
		}
		w.contextStack = w.contextStack[:len(w.contextStack)-1]
	}
	return nil
}

func (w *walker) declareItem(ref string, tags []tagPair) error {
	item := newItem(ref, w.m)
	for _, p := range tags {
		item.Tags.Set(p.name, p.value)
	}
	w.m.Items[ref] = item
	for _, ctx := range w.contextStack {
		ctx.Items[ref] = item
	}

	contexts := w.contextsSnapshot()
	for _, mod := range w.activeModules() {
		if h, ok := mod.(DeclareItemHook); ok {
			if err := h.OnDeclareItem(contexts, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) declareItemSet(ref string, set *ItemSet) error {
	w.m.ItemSets[ref] = set
	for _, ctx := range w.contextStack {
		ctx.ItemSets[ref] = set
	}

	contexts := w.contextsSnapshot()
	for _, mod := range w.activeModules() {
		if h, ok := mod.(DeclareItemSetHook); ok {
			if err := h.OnDeclareItemSet(contexts, ref, set); err != nil {
				return err
			}
		}
	}
	return nil
}
