package cmdmodule

import (
	"sort"

	"github.com/papapumpkin/limar/internal/command"
)

// Table is the column/row projection of a merged entity set, the shape
// the RENDER phase (internal/render) consumes to print a table or tree.
type Table struct {
	Columns []string
	Rows    [][]any
}

// tabulate flattens a subject-keyed entity map into a Table: the column
// set is the union of every entity's fields, sorted for determinism, and
// each row holds nil for fields a given entity doesn't have.
func tabulate(entities map[string]command.Entity) Table {
	colSet := map[string]bool{}
	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for field := range entities[k] {
			colSet[field] = true
		}
	}
	columns := make([]string, 0, len(colSet))
	for c := range colSet {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	rows := make([][]any, 0, len(keys))
	for _, k := range keys {
		entity := entities[k]
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = entity[c]
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}
