// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ckan

import (
	"strings"
)

// name of the column derived from a package's resource formats
const FormatsColumn = "formats"

// columns placed first in a normalized table (when present), in this order
var PreferredColumns = []string{"title", FormatsColumn, "excerpt", "author", "notes", "id"}

// a package record flattened into a table row; a column missing from the
// package is simply absent from the row
type Row map[string]any

// a table of search results: ordered columns and ordered rows
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// returns the value in the given column of the row at index i, or nil if the
// table has no such row or the row has no such column
func (t Table) Value(i int, column string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][column]
}

// returns the rows of the table as slices of values aligned with its columns,
// with nil for missing cells
func (t Table) Records() [][]any {
	records := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		record := make([]any, len(t.Columns))
		for j, column := range t.Columns {
			record[j] = row[column]
		}
		records[i] = record
	}
	return records
}

// Normalize flattens package records into a table. Each row gets a derived
// "formats" cell holding the comma-joined unique formats of the package's
// resources (empty if it has none). The table's columns are the preferred
// columns that are present, followed by all other columns in the order in
// which they first appear across the packages. Normalize has no side effects.
func Normalize(packages []Package) Table {
	table := Table{
		Columns: make([]string, 0),
		Rows:    make([]Row, 0, len(packages)),
	}

	// gather rows and the union of their columns in first-seen order
	union := make([]string, 0)
	seen := make(map[string]bool)
	addColumn := func(column string) {
		if !seen[column] {
			seen[column] = true
			union = append(union, column)
		}
	}
	for _, pkg := range packages {
		row := make(Row, len(pkg.Fields)+1)
		for _, field := range pkg.Fields {
			if field.Name == FormatsColumn { // replaced by the derived column
				continue
			}
			row[field.Name] = decodeValue(field.Value)
			addColumn(field.Name)
		}
		row[FormatsColumn] = strings.Join(pkg.Formats(), ",")
		addColumn(FormatsColumn)
		table.Rows = append(table.Rows, row)
	}

	// preferred columns first, then the rest
	preferred := make(map[string]bool, len(PreferredColumns))
	for _, column := range PreferredColumns {
		preferred[column] = true
		if seen[column] {
			table.Columns = append(table.Columns, column)
		}
	}
	for _, column := range union {
		if !preferred[column] {
			table.Columns = append(table.Columns, column)
		}
	}
	return table
}
