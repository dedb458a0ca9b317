package source

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

// DriverName maps user-facing driver names to registered database/sql drivers.
func DriverName(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return "mysql", nil
	case "pgx", "postgres", "postgresql":
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: driver %q", ErrUnsupported, s)
}

// OpenQuery runs query against dsn and returns its result as a one-sheet
// workbook called name.
func OpenQuery(ctx context.Context, driver, dsn, query, name string, opt Options) (*dataset.Workbook, error) {
	drv, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(drv, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", drv, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", drv, err)
	}
	return QueryWorkbook(ctx, db, query, name, opt)
}

// QueryWorkbook runs query on an open handle.
func QueryWorkbook(ctx context.Context, db *sql.DB, query, name string, opt Options) (*dataset.Workbook, error) {
	if name == "" {
		name = "query"
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()
	t, err := FromRows(rows, name, opt)
	if err != nil {
		return nil, err
	}
	wb := dataset.NewWorkbook(name, "")
	if err := wb.Add(t); err != nil {
		return nil, err
	}
	return wb, nil
}

type sqlKind int

const (
	sqlUnknown sqlKind = iota
	sqlNumber
	sqlBool
	sqlTime
	sqlText
)

func kindOfDBType(name string) sqlKind {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "UNSIGNED ")
	switch n {
	case "":
		return sqlUnknown
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT2", "INT4", "INT8",
		"DECIMAL", "NUMERIC", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL", "YEAR":
		return sqlNumber
	case "BOOL", "BOOLEAN", "BIT":
		return sqlBool
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return sqlTime
	}
	return sqlText
}

// FromRows drains rows into a table. Column types come from the driver's
// database type names; columns the driver does not describe are inferred
// from their values like CSV cells.
func FromRows(rows *sql.Rows, name string, opt Options) (*dataset.Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	kinds := make([]sqlKind, len(names))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			kinds[i] = kindOfDBType(ct.DatabaseTypeName())
		}
	}
	cells := make([][]any, len(names))
	maxRows := limitRows(opt)
	for n := 0; n < maxRows && rows.Next(); n++ {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", n+1, err)
		}
		for i, v := range vals {
			cells[i] = append(cells[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	cols := make([]*dataset.Column, len(names))
	for i, n := range headerNames(names) {
		cols[i] = sqlColumn(n, kinds[i], cells[i], opt)
	}
	return dataset.New(name, cols...)
}

func sqlColumn(name string, kind sqlKind, vals []any, opt Options) *dataset.Column {
	valid := make([]bool, len(vals))
	switch kind {
	case sqlNumber:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i], valid[i] = toFloat(v, opt)
		}
		return dataset.NewNumeric(name, out, valid)
	case sqlBool:
		out := make([]bool, len(vals))
		for i, v := range vals {
			out[i], valid[i] = toBool(v)
		}
		return dataset.NewBoolean(name, out, valid)
	case sqlTime:
		out := make([]time.Time, len(vals))
		for i, v := range vals {
			out[i], valid[i] = toTime(v)
		}
		return dataset.NewDateTime(name, out, valid)
	}
	strs := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		strs[i] = toString(v)
		valid[i] = true
	}
	if kind == sqlUnknown {
		return textColumn(name, strs, opt)
	}
	return dataset.NewText(name, strs, valid)
}

func toString(v any) string {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// toFloat converts a scanned value. NaN counts as missing.
func toFloat(v any, opt Options) (float64, bool) {
	f, ok := scanFloat(v, opt)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func scanFloat(v any, opt Options) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case []byte:
		return parseNumeric(string(x), opt)
	case string:
		return parseNumeric(x, opt)
	}
	return parseNumeric(fmt.Sprint(v), opt)
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, false
	case bool:
		return x, true
	case int64:
		return x != 0, true
	case []byte:
		if len(x) == 1 && (x[0] == 0 || x[0] == 1) {
			return x[0] == 1, true
		}
		return parseBoolToken(string(x))
	case string:
		return parseBoolToken(x)
	}
	return false, false
}

func parseBoolToken(s string) (bool, bool) {
	if b, ok := parseBool(s); ok {
		return b, true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n != 0, true
	}
	return false, false
}

var sqlTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02"}

func toTime(v any) (time.Time, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x, true
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, false
	}
	for _, l := range sqlTimeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
