// Package query implements LIMAR's output transform languages: JQ (a real
// jq dialect, via itchyny/gojq) for the primary `: <expr>` transform form,
// and a small path-query language ("PQ") for the alternate `:: <expr>`
// form. Grounded on modules/tr.py in the LIMAR original, whose `tr.query`
// method dispatches a `lang` of `'jq'` or `'yaql'` over arbitrary Go-side
// data (there, Python objects) and optionally takes only the first result.
package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/papapumpkin/limar/internal/errs"
)

// JQ evaluates expr (a jq program) against input, returning every emitted
// value. first, when true, keeps only the first emitted value (as a single-
// element slice), matching the original's `first=True` query mode used for
// query/action command output.
func JQ(expr string, input any, first bool) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "parsing jq expression %q", expr)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "compiling jq expression %q", expr)
	}

	iter := code.RunWithContext(context.Background(), input)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, errs.Wrap(errs.CommandRunError, err, "evaluating jq expression %q", expr)
		}
		results = append(results, v)
		if first {
			break
		}
	}
	return results, nil
}

// PQ evaluates a small dotted-path expression against input: a chain of
// `.field` and `[index]` accessors, eg. `.items[0].name`. It is a
// deliberately reduced substitute for the original's `yaql` PQ transform --
// no pack example wires a YAQL-equivalent Go library, so PQ covers the
// common "pluck a nested field" case and nothing more; see DESIGN.md.
func PQ(expr string, input any) (any, error) {
	cur := input
	for _, step := range splitPQSteps(expr) {
		if step == "" {
			continue
		}
		if idx, err := strconv.Atoi(step); err == nil {
			slice, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(slice) {
				return nil, errs.New(errs.CommandRunError, "PQ expression %q: index %d out of range", expr, idx)
			}
			cur = slice[idx]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, errs.New(errs.CommandRunError, "PQ expression %q: cannot access field %q on non-object", expr, step)
		}
		v, ok := m[step]
		if !ok {
			return nil, errs.New(errs.CommandRunError, "PQ expression %q: field %q not found", expr, step)
		}
		cur = v
	}
	return cur, nil
}

// splitPQSteps turns ".items[0].name" into ["items", "0", "name"].
func splitPQSteps(expr string) []string {
	expr = strings.TrimPrefix(expr, ".")
	expr = strings.ReplaceAll(expr, "[", ".")
	expr = strings.ReplaceAll(expr, "]", "")
	return strings.Split(expr, ".")
}
