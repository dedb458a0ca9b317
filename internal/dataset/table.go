package dataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Type is the declared storage type of a column, fixed when the table is loaded.
type Type int

const (
	Numeric Type = iota
	Text
	DateTime
	Boolean
)

func (t Type) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case DateTime:
		return "datetime"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrRaggedColumns   = errors.New("columns have different lengths")
)

// Column is a named, typed sequence of cells with explicit nulls.
// Only the slice matching the declared type is populated.
type Column struct {
	name  string
	typ   Type
	nums  []float64
	strs  []string
	times []time.Time
	bools []bool
	valid []bool
	nulls int
}

// NewNumeric builds a numeric column. A nil valid mask means every cell is
// set. NaN cells are stored as null.
func NewNumeric(name string, vals []float64, valid []bool) *Column {
	c := &Column{name: name, typ: Numeric, nums: append([]float64(nil), vals...)}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		mask[i] = (valid == nil || (i < len(valid) && valid[i])) && !math.IsNaN(v)
	}
	c.setValid(len(vals), mask)
	return c
}

// NewText builds a text column.
func NewText(name string, vals []string, valid []bool) *Column {
	c := &Column{name: name, typ: Text, strs: append([]string(nil), vals...)}
	c.setValid(len(vals), valid)
	return c
}

// NewDateTime builds a datetime column.
func NewDateTime(name string, vals []time.Time, valid []bool) *Column {
	c := &Column{name: name, typ: DateTime, times: append([]time.Time(nil), vals...)}
	c.setValid(len(vals), valid)
	return c
}

// NewBoolean builds a boolean column.
func NewBoolean(name string, vals []bool, valid []bool) *Column {
	c := &Column{name: name, typ: Boolean, bools: append([]bool(nil), vals...)}
	c.setValid(len(vals), valid)
	return c
}

func (c *Column) setValid(n int, valid []bool) {
	c.valid = make([]bool, n)
	for i := 0; i < n; i++ {
		c.valid[i] = valid == nil || (i < len(valid) && valid[i])
		if !c.valid[i] {
			c.nulls++
		}
	}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Type() Type   { return c.typ }
func (c *Column) Len() int     { return len(c.valid) }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int { return c.nulls }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// Float returns the value of row i of a numeric column and whether it is set.
func (c *Column) Float(i int) (float64, bool) {
	if c.typ != Numeric || !c.valid[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Str returns the value of row i of a text column and whether it is set.
func (c *Column) Str(i int) (string, bool) {
	if c.typ != Text || !c.valid[i] {
		return "", false
	}
	return c.strs[i], true
}

// Time returns the value of row i of a datetime column and whether it is set.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.typ != DateTime || !c.valid[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// Bool returns the value of row i of a boolean column and whether it is set.
func (c *Column) Bool(i int) (bool, bool) {
	if c.typ != Boolean || !c.valid[i] {
		return false, false
	}
	return c.bools[i], true
}

// Floats returns the non-null values of a numeric column in row order.
func (c *Column) Floats() []float64 {
	if c.typ != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums)-c.nulls)
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns the non-null values of a text column in row order.
func (c *Column) Strings() []string {
	if c.typ != Text {
		return nil
	}
	out := make([]string, 0, len(c.strs)-c.nulls)
	for i, v := range c.strs {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Times returns the non-null values of a datetime column in row order.
func (c *Column) Times() []time.Time {
	if c.typ != DateTime {
		return nil
	}
	out := make([]time.Time, 0, len(c.times)-c.nulls)
	for i, v := range c.times {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is an immutable, ordered set of equal-length columns.
type Table struct {
	name  string
	rows  int
	cols  []*Column
	index map[string]int
}

// New validates and assembles a table. Column names must be unique and all
// columns must have the same length.
func New(name string, cols ...*Column) (*Table, error) {
	t := &Table{name: name, cols: make([]*Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedColumns, c.name, c.Len(), t.rows)
		}
		t.index[c.name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }
func (t *Table) Rows() int    { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}
