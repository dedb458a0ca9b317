// Package report turns the records of an analysis run into a Markdown
// document or a structured YAML/JSON export.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
)

// Format names an output encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts the usual spellings of a format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use markdown, json or yaml)", s)
}

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	}
	return ".md"
}

const DefaultTitle = "Insights Report"

// Document is everything a report needs. It holds copies of the records;
// rendering never touches the engine.
type Document struct {
	Title       string            `json:"title" yaml:"title"`
	File        string            `json:"file,omitempty" yaml:"file,omitempty"`
	Path        string            `json:"path,omitempty" yaml:"path,omitempty"`
	RunID       string            `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Sheets      []string          `json:"sheets" yaml:"sheets"`
	Records     []analysis.Record `json:"records" yaml:"records"`
}

// FromEngine snapshots the engine's workbook metadata and records.
func FromEngine(e *analysis.Engine, title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	doc := &Document{
		Title:       title,
		RunID:       e.RunID(),
		GeneratedAt: time.Now(),
		Records:     e.Records(),
	}
	if wb := e.Workbook(); wb != nil {
		doc.File = wb.Name
		doc.Path = wb.Path
		if doc.File == "" && wb.Path != "" {
			doc.File = filepath.Base(wb.Path)
		}
		doc.Sheets = wb.Names()
	}
	return doc
}

// byKind returns the records of one pass in stored order.
func (d *Document) byKind(k analysis.Kind) []analysis.Record {
	var out []analysis.Record
	for _, r := range d.Records {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}

// Export writes doc as JSON or YAML.
func Export(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("export: unsupported format %q", f)
}

// Render produces the document in the requested format.
func Render(doc *Document, f Format) ([]byte, error) {
	if f == FormatMarkdown {
		return []byte(Markdown(doc)), nil
	}
	var b strings.Builder
	if err := Export(&b, doc, f); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
