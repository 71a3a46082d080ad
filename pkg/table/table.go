// Package table is the in-memory tabular representation which "tabular" drivers
// produce and consume.
//
// A Table is an ordered sequence of named, typed columns of the same length.
// Each cell is either missing (nil) or a value of the Go type of its column kind:
//
//	Kind    | Go type
//	--------|---------
//	String  | string
//	Int     | int64
//	Float   | float64
//	Bool    | bool
//
// Tables are values: operations never modify a Table in place.
package table

import (
	"errors"
	"fmt"
)

type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// accepts reports whether v is a valid cell of this kind.
func (k Kind) accepts(v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case String:
		_, ok := v.(string)
		return ok
	case Int:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}

var (
	ErrLengthMismatch   = errors.New("table: columns have different length")
	ErrKindMismatch     = errors.New("table: cell does not match column kind")
	ErrDuplicatedColumn = errors.New("table: duplicated column name")
	ErrUnknownKind      = errors.New("table: unknown column kind")
)

type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Missing tells the nth cell is missing.
func (c Column) Missing(nth int) bool {
	return c.Values[nth] == nil
}

func (c Column) Len() int {
	return len(c.Values)
}

func (c Column) clone() Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: values}
}

func (c Column) equal(o Column) bool {
	if c.Name != o.Name || c.Kind != o.Kind || len(c.Values) != len(o.Values) {
		return false
	}
	for i := range c.Values {
		if c.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

type Table struct {
	columns []Column
	rows    int
}

// New creates a Table from columns.
//
// All columns should have same length, unique name and cells matching their kind.
// Columns are copied, so modifying them after New does not affect the Table.
func New(columns ...Column) (Table, error) {
	rows := 0
	seen := map[string]struct{}{}
	cols := make([]Column, 0, len(columns))

	for i, c := range columns {
		if c.Kind < String || Bool < c.Kind {
			return Table{}, fmt.Errorf("%w: column %q has %s", ErrUnknownKind, c.Name, c.Kind)
		}
		if _, ok := seen[c.Name]; ok {
			return Table{}, fmt.Errorf("%w: %q", ErrDuplicatedColumn, c.Name)
		}
		seen[c.Name] = struct{}{}

		if i == 0 {
			rows = c.Len()
		} else if c.Len() != rows {
			return Table{}, fmt.Errorf(
				"%w: column %q has %d rows, but %q has %d",
				ErrLengthMismatch, c.Name, c.Len(), columns[0].Name, rows,
			)
		}

		for nth, v := range c.Values {
			if !c.Kind.accepts(v) {
				return Table{}, fmt.Errorf(
					"%w: column %q (%s) row %d has %T", ErrKindMismatch, c.Name, c.Kind, nth, v,
				)
			}
		}
		cols = append(cols, c.clone())
	}

	return Table{columns: cols, rows: rows}, nil
}

// Must is New which panics on error.
func Must(t Table, err error) Table {
	if err != nil {
		panic(err)
	}
	return t
}

// Column names in order.
func (t Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns a copy of the column with the name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c.clone(), true
		}
	}
	return Column{}, false
}

// ColumnAt returns a copy of the nth column.
func (t Table) ColumnAt(nth int) Column {
	return t.columns[nth].clone()
}

func (t Table) NumColumns() int {
	return len(t.columns)
}

func (t Table) NumRows() int {
	return t.rows
}

// Row returns cells of the nth row, in column order.
func (t Table) Row(nth int) []any {
	row := make([]any, len(t.columns))
	for i, c := range t.columns {
		row[i] = c.Values[nth]
	}
	return row
}

// Equal tells two tables have same columns (name, kind and order) and same cells.
func (t Table) Equal(o Table) bool {
	if len(t.columns) != len(o.columns) || t.rows != o.rows {
		return false
	}
	for i := range t.columns {
		if !t.columns[i].equal(o.columns[i]) {
			return false
		}
	}
	return true
}

func (t Table) String() string {
	return fmt.Sprintf("Table(%d rows x %v)", t.rows, t.Columns())
}
