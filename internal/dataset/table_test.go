package dataset

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestColumnNullsAndValues(t *testing.T) {
	c := NewNumeric("score", []float64{1, 0, 3, 4}, []bool{true, false, true, true})
	if c.Len() != 4 {
		t.Fatalf("len = %d, want 4", c.Len())
	}
	if c.NullCount() != 1 {
		t.Fatalf("nulls = %d, want 1", c.NullCount())
	}
	if !c.IsNull(1) {
		t.Fatalf("row 1 should be null")
	}
	if _, ok := c.Float(1); ok {
		t.Fatalf("Float(1) should report unset")
	}
	got := c.Floats()
	want := []float64{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("floats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("floats = %v, want %v", got, want)
		}
	}
	if _, ok := c.Str(0); ok {
		t.Fatalf("Str on numeric column should report unset")
	}
}

func TestColumnCopiesInput(t *testing.T) {
	vals := []string{"a", "b"}
	c := NewText("t", vals, nil)
	vals[0] = "changed"
	if v, _ := c.Str(0); v != "a" {
		t.Fatalf("column aliased its input: %q", v)
	}
	if c.NullCount() != 0 {
		t.Fatalf("nil mask should mean no nulls")
	}
}

func TestDateTimeAndBoolean(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dc := NewDateTime("when", []time.Time{d, {}}, []bool{true, false})
	if got := dc.Times(); len(got) != 1 || !got[0].Equal(d) {
		t.Fatalf("times = %v", got)
	}
	bc := NewBoolean("flag", []bool{true, false}, nil)
	if v, ok := bc.Bool(1); !ok || v {
		t.Fatalf("Bool(1) = %v, %v", v, ok)
	}
}

func TestNewTableValidation(t *testing.T) {
	a := NewNumeric("a", []float64{1, 2}, nil)
	b := NewText("b", []string{"x"}, nil)
	if _, err := New("s", a, b); !errors.Is(err, ErrRaggedColumns) {
		t.Fatalf("err = %v, want ErrRaggedColumns", err)
	}
	dup := NewNumeric("a", []float64{3, 4}, nil)
	if _, err := New("s", a, dup); !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("err = %v, want ErrDuplicateColumn", err)
	}
	tbl, err := New("s", a, NewText("b", []string{"x", "y"}, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tbl.Rows() != 2 || tbl.NumCols() != 2 {
		t.Fatalf("shape = %dx%d", tbl.Rows(), tbl.NumCols())
	}
	if c, ok := tbl.Column("b"); !ok || c.Type() != Text {
		t.Fatalf("Column(b) = %v, %v", c, ok)
	}
	names := tbl.ColumnNames()
	if names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}

func TestWorkbookOrderAndDefault(t *testing.T) {
	wb := NewWorkbook("book.xlsx", "/tmp/book.xlsx")
	if wb.Default() != nil || wb.DefaultName() != "" {
		t.Fatalf("empty workbook should have no default")
	}
	s2, _ := New("Sales", NewNumeric("x", []float64{1}, nil))
	s1, _ := New("Customers", NewNumeric("y", []float64{2}, nil))
	if err := wb.Add(s2); err != nil {
		t.Fatal(err)
	}
	if err := wb.Add(s1); err != nil {
		t.Fatal(err)
	}
	if err := wb.Add(s1); !errors.Is(err, ErrDuplicateSheet) {
		t.Fatalf("err = %v, want ErrDuplicateSheet", err)
	}
	if wb.DefaultName() != "Sales" {
		t.Fatalf("default = %q, want Sales", wb.DefaultName())
	}
	names := wb.Names()
	if len(names) != 2 || names[0] != "Sales" || names[1] != "Customers" {
		t.Fatalf("names = %v", names)
	}
	if _, ok := wb.Sheet("Customers"); !ok {
		t.Fatalf("Customers not found")
	}
}

func TestNumericNaNIsNull(t *testing.T) {
	c := NewNumeric("x", []float64{1, math.NaN(), 2}, nil)
	if c.NullCount() != 1 || !c.IsNull(1) {
		t.Fatalf("nulls = %d, want NaN stored as null", c.NullCount())
	}
	if got := c.Floats(); len(got) != 2 {
		t.Fatalf("floats = %v, want 2 values", got)
	}
}
