package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool { return hasExt(path, ".csv", ".tsv", ".txt") }

func (csvLoader) Load(path string, opt Options) (*dataset.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	t, err := ReadCSV(f, stem(path), delim, opt)
	if err != nil {
		return nil, err
	}
	wb := dataset.NewWorkbook(filepath.Base(path), path)
	if err := wb.Add(t); err != nil {
		return nil, err
	}
	return wb, nil
}

// ReadCSV reads a delimited stream whose first record is the header.
func ReadCSV(r io.Reader, name string, delim rune, opt Options) (*dataset.Table, error) {
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.New(name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	names := headerNames(header)
	cells := make([][]string, len(names))
	maxRows := limitRows(opt)
	line := 1
	for rows := 0; rows < maxRows; rows++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		for j := range names {
			v := ""
			if j < len(rec) {
				v = rec[j]
			}
			cells[j] = append(cells[j], v)
		}
	}
	cols := make([]*dataset.Column, len(names))
	for j, n := range names {
		cols[j] = textColumn(n, cells[j], opt)
	}
	return dataset.New(name, cols...)
}

// sniffDelimiter picks tab for .tsv files, otherwise the most frequent of
// ',', ';', '\t' and '|' on the first line.
func sniffDelimiter(path string) rune {
	if hasExt(path, ".tsv") {
		return '\t'
	}
	f, err := os.Open(path)
	if err != nil {
		return ','
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return ','
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
