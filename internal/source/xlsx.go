package source

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(p string) bool { return hasExt(p, ".xlsx", ".xlsm") }

// Load reads every worksheet of the workbook in workbook order.
func (xlsxLoader) Load(p string, opt Options) (*dataset.Workbook, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wbInfo := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))
	styles := parseStyles(readZipFile(zr, "xl/styles.xml"))

	out := dataset.NewWorkbook(filepath.Base(p), p)
	for i, s := range wbInfo.sheets {
		target := ""
		if rel, ok := rels[s.RID]; ok {
			target = normalizeRelPath(rel)
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		}
		data := readZipFile(zr, target)
		if data == nil {
			return nil, fmt.Errorf("sheet %q: missing part %s", s.Name, target)
		}
		rr := newSheetRowReader(data, shared, styles, wbInfo.date1904)
		t, err := buildSheet(s.Name, rr, opt)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		if err := out.Add(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellNumber
	cellString
	cellBool
	cellDate
)

type xcell struct {
	kind cellKind
	num  float64
	str  string
	b    bool
	t    time.Time
}

func (c xcell) text() string {
	switch c.kind {
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case cellString:
		return c.str
	case cellBool:
		return strconv.FormatBool(c.b)
	case cellDate:
		if c.t.Hour() == 0 && c.t.Minute() == 0 && c.t.Second() == 0 && c.t.Nanosecond() == 0 {
			return c.t.Format("2006-01-02")
		}
		return c.t.Format("2006-01-02 15:04:05")
	}
	return ""
}

// buildSheet turns the first non-empty row into headers and types every
// column from the cells below it. Fully empty rows are skipped.
func buildSheet(name string, rr *sheetRowReader, opt Options) (*dataset.Table, error) {
	var header []xcell
	for {
		row, ok := rr.Next()
		if !ok {
			return dataset.New(name)
		}
		if !emptyRow(row) {
			header = row
			break
		}
	}
	var rows [][]xcell
	width := len(header)
	maxRows := limitRows(opt)
	for len(rows) < maxRows {
		row, ok := rr.Next()
		if !ok {
			break
		}
		if emptyRow(row) {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	raw := make([]string, width)
	for j := range raw {
		if j < len(header) {
			raw[j] = header[j].text()
		}
	}
	names := headerNames(raw)
	cols := make([]*dataset.Column, width)
	cells := make([]xcell, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			} else {
				cells[i] = xcell{}
			}
		}
		cols[j] = typedColumn(names[j], cells)
	}
	return dataset.New(name, cols...)
}

func emptyRow(row []xcell) bool {
	for _, c := range row {
		if c.kind != cellEmpty {
			return false
		}
	}
	return true
}

// typedColumn keeps a native type when every non-empty cell agrees on it and
// falls back to text otherwise.
func typedColumn(name string, cells []xcell) *dataset.Column {
	var kind cellKind
	mixed := false
	for _, c := range cells {
		if c.kind == cellEmpty {
			continue
		}
		if kind == cellEmpty {
			kind = c.kind
		} else if kind != c.kind {
			mixed = true
			break
		}
	}
	valid := make([]bool, len(cells))
	for i, c := range cells {
		valid[i] = c.kind != cellEmpty
	}
	if !mixed {
		switch kind {
		case cellNumber:
			vals := make([]float64, len(cells))
			for i, c := range cells {
				vals[i] = c.num
			}
			return dataset.NewNumeric(name, vals, valid)
		case cellDate:
			vals := make([]time.Time, len(cells))
			for i, c := range cells {
				vals[i] = c.t
			}
			return dataset.NewDateTime(name, vals, valid)
		case cellBool:
			vals := make([]bool, len(cells))
			for i, c := range cells {
				vals[i] = c.b
			}
			return dataset.NewBoolean(name, vals, valid)
		}
	}
	vals := make([]string, len(cells))
	for i, c := range cells {
		vals[i] = c.text()
	}
	return dataset.NewText(name, vals, valid)
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

type wbMeta struct {
	sheets   []wbSheet
	date1904 bool
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) wbMeta {
	var meta wbMeta
	if len(data) == 0 {
		return meta
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return meta
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "workbookPr":
			for _, a := range se.Attr {
				if a.Name.Local == "date1904" {
					meta.date1904 = a.Value == "1" || strings.EqualFold(a.Value, "true")
				}
			}
		case "sheet":
			var s wbSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.Name = a.Value
				case "sheetId":
					s.SheetID = atoiSafe(a.Value)
				case "id":
					s.RID = a.Value // r: namespace
				}
			}
			meta.sheets = append(meta.sheets, s)
		}
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// styleTable marks which cellXfs indexes carry a date number format.
type styleTable struct {
	dateXF []bool
}

func (s styleTable) isDate(xf int) bool {
	return xf >= 0 && xf < len(s.dateXF) && s.dateXF[xf]
}

func parseStyles(data []byte) styleTable {
	var st styleTable
	if len(data) == 0 {
		return st
	}
	custom := map[int]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	inCellXfs := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return st
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "numFmt":
				var id int
				var code string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "numFmtId":
						id = atoiSafe(a.Value)
					case "formatCode":
						code = a.Value
					}
				}
				custom[id] = code
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := -1
				for _, a := range se.Attr {
					if a.Name.Local == "numFmtId" {
						id = atoiSafe(a.Value)
					}
				}
				date := isBuiltinDateFormat(id)
				if code, ok := custom[id]; ok {
					date = isDateFormatCode(code)
				}
				st.dateXF = append(st.dateXF, date)
			}
		case xml.EndElement:
			if se.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
}

func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// isDateFormatCode looks for date or time tokens outside quoted literals and
// bracketed sections such as colors or locales.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\\':
			i++
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			switch c {
			case 'y', 'Y', 'd', 'D', 'm', 'M', 'h', 'H', 's', 'S':
				return true
			}
		}
	}
	return false
}

var (
	epoch1900 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

// serialToTime converts an Excel serial date, rounded to the millisecond.
func serialToTime(v float64, date1904 bool) time.Time {
	base := epoch1900
	if date1904 {
		base = epoch1904
	}
	days := math.Floor(v)
	ms := math.Round((v - days) * 86400 * 1000)
	return base.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
}

type sheetRowReader struct {
	dec      *xml.Decoder
	shared   []string
	styles   styleTable
	date1904 bool
	curRow   []xcell
}

func newSheetRowReader(data []byte, shared []string, styles styleTable, date1904 bool) *sheetRowReader {
	return &sheetRowReader{
		dec:      xml.NewDecoder(bytes.NewReader(data)),
		shared:   shared,
		styles:   styles,
		date1904: date1904,
	}
}

// Next returns the cells of the next <row>, indexed by column.
func (r *sheetRowReader) Next() ([]xcell, bool) {
	inRow := false
	next := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				r.curRow = nil
				next = 0
			}
			if inRow && se.Name.Local == "c" {
				var rAttr, tAttr string
				xf := -1
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						rAttr = a.Value
					case "t":
						tAttr = a.Value
					case "s":
						xf = atoiSafe(a.Value)
					}
				}
				colIdx := next
				if ref := colIndexFromRef(rAttr); ref >= 0 {
					colIdx = ref
				}
				next = colIdx + 1
				c := r.readCell(tAttr, xf)
				if len(r.curRow) <= colIdx {
					tmp := make([]xcell, colIdx+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[colIdx] = c
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				return r.curRow, true
			}
		}
	}
}

// readCell consumes tokens up to </c> and decodes the value by cell type.
func (r *sheetRowReader) readCell(tAttr string, xf int) xcell {
	var val string
	var have bool
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return xcell{}
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val += sb.String()
				have = true
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if !have {
					return xcell{}
				}
				return r.decode(tAttr, xf, val)
			}
		}
	}
}

func (r *sheetRowReader) decode(tAttr string, xf int, val string) xcell {
	switch tAttr {
	case "s":
		idx := atoiSafe(val)
		if idx < 0 || idx >= len(r.shared) {
			return xcell{}
		}
		return stringCell(r.shared[idx])
	case "inlineStr", "str":
		return stringCell(val)
	case "b":
		return xcell{kind: cellBool, b: strings.TrimSpace(val) == "1"}
	case "e":
		return xcell{}
	case "d":
		for _, l := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(l, strings.TrimSpace(val)); err == nil {
				return xcell{kind: cellDate, t: t}
			}
		}
		return stringCell(val)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return stringCell(val)
	}
	if r.styles.isDate(xf) {
		return xcell{kind: cellDate, t: serialToTime(f, r.date1904)}
	}
	return xcell{kind: cellNumber, num: f}
}

func stringCell(s string) xcell {
	if isNull(s) {
		return xcell{}
	}
	return xcell{kind: cellString, str: s}
}

// colIndexFromRef maps refs like "C12" to 2 (0-based).
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets to zip entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
