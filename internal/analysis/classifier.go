package analysis

import (
	"time"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

// Class is the semantic type a column is analyzed as.
type Class int

const (
	ClassNumeric Class = iota
	ClassCategorical
	ClassTemporal
	ClassBoolean
)

func (c Class) String() string {
	switch c {
	case ClassNumeric:
		return "numeric"
	case ClassCategorical:
		return "categorical"
	case ClassTemporal:
		return "temporal"
	case ClassBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// DefaultDateRatio is the share of non-null text values that must parse as
// dates for a text column to be treated as temporal.
const DefaultDateRatio = 0.7

// Classify decides the analysis class of a column. It never fails; a column
// without any values is categorical.
func Classify(col *dataset.Column, ratio float64) Class {
	nonNull := col.Len() - col.NullCount()
	if nonNull == 0 {
		return ClassCategorical
	}
	switch col.Type() {
	case dataset.Numeric:
		return ClassNumeric
	case dataset.DateTime:
		return ClassTemporal
	case dataset.Boolean:
		return ClassBoolean
	}
	if ratio <= 0 {
		ratio = DefaultDateRatio
	}
	parsed := 0
	for _, s := range col.Strings() {
		if _, ok := ParseDate(s); ok {
			parsed++
		}
	}
	if float64(parsed)/float64(nonNull) >= ratio {
		return ClassTemporal
	}
	return ClassCategorical
}

// ColumnProfile is a read-only view of one column as the passes see it.
type ColumnProfile struct {
	Name     string
	Declared dataset.Type
	Class    Class
	Rows     int
	Nulls    int
}

// NonNull returns the number of cells holding a value.
func (p ColumnProfile) NonNull() int { return p.Rows - p.Nulls }

// ProfileColumn classifies col and captures its missingness.
func ProfileColumn(col *dataset.Column, ratio float64) ColumnProfile {
	return ColumnProfile{
		Name:     col.Name(),
		Declared: col.Type(),
		Class:    Classify(col, ratio),
		Rows:     col.Len(),
		Nulls:    col.NullCount(),
	}
}

// temporalValues returns the dates of a temporal column in row order.
// Text cells that do not parse count as missing.
func temporalValues(col *dataset.Column) []time.Time {
	if col.Type() == dataset.DateTime {
		return col.Times()
	}
	if col.Type() != dataset.Text {
		return nil
	}
	var out []time.Time
	for _, s := range col.Strings() {
		if t, ok := ParseDate(s); ok {
			out = append(out, t)
		}
	}
	return out
}
