package source

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

func writeTestParquet(t *testing.T) string {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "city", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "vip", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "joined", Type: arrow.FixedWidthTypes.Date32},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.Float64Builder).AppendValues([]float64{9.5, 0, 7}, []bool{true, false, true})
	b.Field(2).(*array.StringBuilder).AppendValues([]string{"Oslo", "Lima", ""}, []bool{true, true, false})
	b.Field(3).(*array.BooleanBuilder).AppendValues([]bool{true, false, true}, nil)
	days := []arrow.Date32{
		arrow.Date32FromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		arrow.Date32FromTime(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		arrow.Date32FromTime(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
	}
	b.Field(4).(*array.Date32Builder).AppendValues(days, nil)

	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	p := filepath.Join(t.TempDir(), "members.parquet")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	return p
}

func TestLoadParquetKeepsNativeTypes(t *testing.T) {
	wb, err := Load(writeTestParquet(t), Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if wb.DefaultName() != "members" {
		t.Fatalf("sheet = %q, want members", wb.DefaultName())
	}
	tbl := wb.Default()
	if tbl.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Rows())
	}
	want := map[string]dataset.Type{
		"id":     dataset.Numeric,
		"score":  dataset.Numeric,
		"city":   dataset.Text,
		"vip":    dataset.Boolean,
		"joined": dataset.DateTime,
	}
	for name, typ := range want {
		c, ok := tbl.Column(name)
		if !ok || c.Type() != typ {
			t.Fatalf("%s: ok=%v type=%v, want %v", name, ok, c, typ)
		}
	}
	score, _ := tbl.Column("score")
	if !score.IsNull(1) {
		t.Fatalf("score[1] should be null")
	}
	city, _ := tbl.Column("city")
	if city.NullCount() != 1 {
		t.Fatalf("city nulls = %d, want 1", city.NullCount())
	}
	joined, _ := tbl.Column("joined")
	if d, _ := joined.Time(2); !d.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("joined[2] = %v", d)
	}
}

func TestLoadParquetMaxRows(t *testing.T) {
	wb, err := Load(writeTestParquet(t), Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if wb.Default().Rows() != 2 {
		t.Fatalf("rows = %d, want 2", wb.Default().Rows())
	}
}

func TestLoadParquetNaNIsMissing(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{{Name: "score", Type: arrow.PrimitiveTypes.Float64}}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{1, math.NaN(), 3}, nil)
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	p := filepath.Join(t.TempDir(), "scores.parquet")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	f.Close()

	wb, err := Load(p, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	score, _ := wb.Default().Column("score")
	if score.NullCount() != 1 || !score.IsNull(1) {
		t.Fatalf("nulls = %d, want NaN at row 1 counted as null", score.NullCount())
	}
	got := score.Floats()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("floats = %v, want [1 3]", got)
	}
}
