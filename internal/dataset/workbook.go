package dataset

import (
	"errors"
	"fmt"
)

var ErrDuplicateSheet = errors.New("duplicate sheet name")

// Workbook is the sheet collection produced by a loader. Sheets keep their
// insertion order and the first one added is the default.
type Workbook struct {
	Name string
	Path string

	order  []string
	sheets map[string]*Table
}

// NewWorkbook creates an empty collection for the given source.
func NewWorkbook(name, path string) *Workbook {
	return &Workbook{Name: name, Path: path, sheets: make(map[string]*Table)}
}

// Add appends a sheet. Names are keyed by the table name and must be unique.
func (w *Workbook) Add(t *Table) error {
	if t == nil {
		return errors.New("nil table")
	}
	if _, ok := w.sheets[t.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSheet, t.Name())
	}
	w.order = append(w.order, t.Name())
	w.sheets[t.Name()] = t
	return nil
}

// Sheet returns the named sheet.
func (w *Workbook) Sheet(name string) (*Table, bool) {
	t, ok := w.sheets[name]
	return t, ok
}

// Default returns the first loaded sheet, or nil for an empty workbook.
func (w *Workbook) Default() *Table {
	if len(w.order) == 0 {
		return nil
	}
	return w.sheets[w.order[0]]
}

// DefaultName returns the name of the first loaded sheet.
func (w *Workbook) DefaultName() string {
	if len(w.order) == 0 {
		return ""
	}
	return w.order[0]
}

// Names lists sheet names in load order.
func (w *Workbook) Names() []string { return append([]string(nil), w.order...) }

func (w *Workbook) Len() int { return len(w.order) }
