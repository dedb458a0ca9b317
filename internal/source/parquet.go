package source

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

type parquetLoader struct{}

func (parquetLoader) CanLoad(p string) bool { return hasExt(p, ".parquet", ".pq") }

func (parquetLoader) Load(p string, opt Options) (*dataset.Workbook, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pf.Close()

	rdr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader: %w", err)
	}
	tbl, err := rdr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read parquet data: %w", err)
	}
	defer tbl.Release()

	t, err := FromArrow(stem(p), tbl, opt)
	if err != nil {
		return nil, err
	}
	wb := dataset.NewWorkbook(filepath.Base(p), p)
	if err := wb.Add(t); err != nil {
		return nil, err
	}
	return wb, nil
}

type arrowKind int

const (
	arrowText arrowKind = iota
	arrowNumber
	arrowBool
	arrowTime
)

func kindOf(dt arrow.DataType) arrowKind {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		return arrowNumber
	case arrow.BOOL:
		return arrowBool
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return arrowTime
	}
	return arrowText
}

// FromArrow copies an Arrow table into a dataset table, keeping native
// numeric, boolean and temporal types. Other types become text.
func FromArrow(name string, tbl arrow.Table, opt Options) (*dataset.Table, error) {
	rows := int(tbl.NumRows())
	if lim := limitRows(opt); rows > lim {
		rows = lim
	}
	schema := tbl.Schema()
	cols := make([]*dataset.Column, int(tbl.NumCols()))
	for i := range cols {
		field := schema.Field(i)
		cols[i] = arrowColumn(field, tbl.Column(i).Data().Chunks(), rows)
	}
	return dataset.New(name, cols...)
}

func arrowColumn(field arrow.Field, chunks []arrow.Array, rows int) *dataset.Column {
	kind := kindOf(field.Type)
	valid := make([]bool, rows)
	nums := make([]float64, rows)
	strs := make([]string, rows)
	bools := make([]bool, rows)
	times := make([]time.Time, rows)

	r := 0
	for _, chunk := range chunks {
		for j := 0; j < chunk.Len() && r < rows; j, r = j+1, r+1 {
			if chunk.IsNull(j) {
				continue
			}
			valid[r] = true
			switch kind {
			case arrowNumber:
				nums[r] = floatValue(chunk, j)
				if math.IsNaN(nums[r]) {
					valid[r] = false
				}
			case arrowBool:
				bools[r] = chunk.(*array.Boolean).Value(j)
			case arrowTime:
				times[r] = timeValue(chunk, j)
			default:
				strs[r] = chunk.ValueStr(j)
			}
		}
	}
	switch kind {
	case arrowNumber:
		return dataset.NewNumeric(field.Name, nums, valid)
	case arrowBool:
		return dataset.NewBoolean(field.Name, bools, valid)
	case arrowTime:
		return dataset.NewDateTime(field.Name, times, valid)
	}
	return dataset.NewText(field.Name, strs, valid)
}

func floatValue(arr arrow.Array, j int) float64 {
	switch a := arr.(type) {
	case *array.Int8:
		return float64(a.Value(j))
	case *array.Int16:
		return float64(a.Value(j))
	case *array.Int32:
		return float64(a.Value(j))
	case *array.Int64:
		return float64(a.Value(j))
	case *array.Uint8:
		return float64(a.Value(j))
	case *array.Uint16:
		return float64(a.Value(j))
	case *array.Uint32:
		return float64(a.Value(j))
	case *array.Uint64:
		return float64(a.Value(j))
	case *array.Float32:
		return float64(a.Value(j))
	case *array.Float64:
		return a.Value(j)
	}
	return 0
}

func timeValue(arr arrow.Array, j int) time.Time {
	switch a := arr.(type) {
	case *array.Date32:
		return a.Value(j).ToTime()
	case *array.Date64:
		return a.Value(j).ToTime()
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(j).ToTime(unit)
	}
	return time.Time{}
}
