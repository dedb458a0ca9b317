package report

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
)

const dateLayout = "2006-01-02"

// Markdown renders the document as a human-readable report with one section
// per pass.
func Markdown(doc *Document) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("# " + doc.Title + "\n")
	b.WriteString(p.Sprintf("Generated on: %s\n", doc.GeneratedAt.Format("2006-01-02 15:04:05")))
	if doc.RunID != "" {
		b.WriteString(p.Sprintf("Run ID: %s\n", doc.RunID))
	}
	b.WriteString("\n")

	writeFileInfo(&b, p, doc)
	writeSection(&b, doc, analysis.KindSummary, "Summary Statistics", func(r analysis.Record) {
		writeSummary(&b, p, r.Result.(*analysis.SummaryResult))
	})
	writeSection(&b, doc, analysis.KindCorrelation, "Correlations", func(r analysis.Record) {
		writeCorrelations(&b, p, r.Result.(*analysis.CorrelationResult))
	})
	writeSection(&b, doc, analysis.KindOutliers, "Outliers", func(r analysis.Record) {
		writeOutliers(&b, p, r.Result.(*analysis.OutlierResult))
	})
	writeSection(&b, doc, analysis.KindCategorical, "Categorical Data Analysis", func(r analysis.Record) {
		writeCategorical(&b, p, r.Result.(*analysis.CategoricalResult))
	})
	writeSection(&b, doc, analysis.KindTemporal, "Date Analysis", func(r analysis.Record) {
		writeDates(&b, p, r.Result.(*analysis.TemporalResult))
	})
	return b.String()
}

func writeFileInfo(b *strings.Builder, p *message.Printer, doc *Document) {
	if doc.File == "" && doc.Path == "" && len(doc.Sheets) == 0 {
		return
	}
	b.WriteString("## File Information\n")
	if doc.File != "" {
		b.WriteString(p.Sprintf("- File: %s\n", doc.File))
	}
	if doc.Path != "" {
		b.WriteString(p.Sprintf("- Path: %s\n", doc.Path))
	}
	overviews := doc.byKind(analysis.KindOverview)
	if ov := defaultOverview(doc, overviews); ov != nil {
		b.WriteString(p.Sprintf("- Sheets: %s\n", strings.Join(ov.Sheets, ", ")))
		b.WriteString(p.Sprintf("- Rows: %d\n", ov.Rows))
		b.WriteString(p.Sprintf("- Columns: %d\n", ov.Columns))
	} else if len(doc.Sheets) > 0 {
		b.WriteString(p.Sprintf("- Sheets: %s\n", strings.Join(doc.Sheets, ", ")))
	}
	b.WriteString("\n")

	for _, r := range overviews {
		ov := r.Result.(*analysis.OverviewResult)
		if len(ov.Types) == 0 {
			continue
		}
		b.WriteString("### Columns")
		if r.Sheet != analysis.DefaultSheet {
			b.WriteString(" (" + r.Sheet + ")")
		}
		b.WriteString("\n| Column | Type | Analyzed as | Missing |\n| --- | --- | --- | --- |\n")
		for _, t := range ov.Types {
			b.WriteString(p.Sprintf("| %s | %s | %s | %d |\n", cell(t.Name), t.Declared, t.Class, t.Missing))
		}
		b.WriteString("\n")
	}
}

// defaultOverview picks the overview of the default sheet, whether it was
// stored under the "default" key or under the first sheet's name.
func defaultOverview(doc *Document, overviews []analysis.Record) *analysis.OverviewResult {
	first := ""
	if len(doc.Sheets) > 0 {
		first = doc.Sheets[0]
	}
	var pick *analysis.OverviewResult
	for _, r := range overviews {
		switch {
		case r.Sheet == analysis.DefaultSheet:
			return r.Result.(*analysis.OverviewResult)
		case r.Sheet == first && pick == nil:
			pick = r.Result.(*analysis.OverviewResult)
		}
	}
	if pick == nil && len(overviews) > 0 {
		pick = overviews[0].Result.(*analysis.OverviewResult)
	}
	return pick
}

// writeSection emits the heading of a pass and one block per sheet record.
// Passes that never ran are left out.
func writeSection(b *strings.Builder, doc *Document, k analysis.Kind, title string, body func(analysis.Record)) {
	recs := doc.byKind(k)
	if len(recs) == 0 {
		return
	}
	b.WriteString("## " + title + "\n")
	for _, r := range recs {
		if r.Sheet != analysis.DefaultSheet {
			b.WriteString("\n### Sheet: " + r.Sheet + "\n")
		}
		body(r)
		writeNotes(b, r.Diagnostics)
	}
	b.WriteString("\n")
}

func writeNotes(b *strings.Builder, diags []analysis.Diagnostic) {
	for _, d := range diags {
		if d.Code == analysis.DiagUnsupportedColumnSet {
			continue
		}
		b.WriteString("> Note: " + d.String() + "\n")
	}
}

func writeSummary(b *strings.Builder, p *message.Printer, res *analysis.SummaryResult) {
	if len(res.Columns) == 0 {
		b.WriteString("No numerical columns found for analysis.\n")
		return
	}
	b.WriteString("The following numerical columns were analyzed:\n")
	b.WriteString("- " + strings.Join(res.ColumnNames(), ", ") + "\n\n")
	for _, c := range res.Columns {
		b.WriteString("### " + c.Column + "\n")
		b.WriteString(p.Sprintf("- Count: %d\n", c.Count))
		b.WriteString(p.Sprintf("- Mean: %.2f\n", c.Mean))
		if c.Std != nil {
			b.WriteString(p.Sprintf("- Std Dev: %.2f\n", *c.Std))
		} else {
			b.WriteString("- Std Dev: N/A\n")
		}
		b.WriteString(p.Sprintf("- Min: %.2f\n", c.Min))
		b.WriteString(p.Sprintf("- 25%%: %.2f\n", c.Q1))
		b.WriteString(p.Sprintf("- Median: %.2f\n", c.Median))
		b.WriteString(p.Sprintf("- 75%%: %.2f\n", c.Q3))
		b.WriteString(p.Sprintf("- Max: %.2f\n\n", c.Max))
	}
}

func writeCorrelations(b *strings.Builder, p *message.Printer, res *analysis.CorrelationResult) {
	if len(res.Pairs) == 0 {
		b.WriteString("No significant correlations found.\n")
		return
	}
	b.WriteString("The following pairs of columns show significant correlation:\n")
	for _, pair := range res.Pairs {
		b.WriteString(p.Sprintf("- %s: %.2f (n=%d)\n", pair.Key(), pair.Coefficient, pair.Observations))
	}
}

func writeOutliers(b *strings.Builder, p *message.Printer, res *analysis.OutlierResult) {
	if len(res.Columns) == 0 {
		b.WriteString("No outliers detected.\n")
		return
	}
	b.WriteString(p.Sprintf("Method: %s (threshold %.2f)\n\n", res.Method, res.Threshold))
	for _, c := range res.Columns {
		b.WriteString("### " + c.Column + "\n")
		b.WriteString(p.Sprintf("- Outlier count: %d\n", c.Count))
		b.WriteString(p.Sprintf("- Percentage of data: %.2f%%\n", c.Percentage))
		b.WriteString(p.Sprintf("- Bounds: %.2f to %.2f\n", c.Lower, c.Upper))
		if len(c.Values) > 0 {
			vals := make([]string, len(c.Values))
			for i, v := range c.Values {
				vals[i] = p.Sprintf("%.2f", v)
			}
			b.WriteString("- Sample outliers: " + strings.Join(vals, ", ") + "\n")
		}
		b.WriteString("\n")
	}
}

func writeCategorical(b *strings.Builder, p *message.Printer, res *analysis.CategoricalResult) {
	if len(res.Columns) == 0 {
		b.WriteString("No categorical columns found for analysis.\n")
		return
	}
	for _, c := range res.Columns {
		b.WriteString("### " + c.Column + "\n")
		b.WriteString(p.Sprintf("- Unique values: %d\n", c.Unique))
		b.WriteString(p.Sprintf("- Missing values: %d (%.2f%%)\n", c.Missing, c.MissingPercent))
		if len(c.Top) > 0 {
			b.WriteString("\nTop categories:\n")
			for _, t := range c.Top {
				b.WriteString(p.Sprintf("- %s: %d (%.2f%%)\n", value(t.Value), t.Count, t.Percent))
			}
			if c.Other.Count > 0 {
				b.WriteString(p.Sprintf("- (other): %d (%.2f%%)\n", c.Other.Count, c.Other.Percent))
			}
		}
		b.WriteString("\n")
	}
}

func writeDates(b *strings.Builder, p *message.Printer, res *analysis.TemporalResult) {
	if len(res.Columns) == 0 {
		b.WriteString("No date columns found for analysis.\n")
		return
	}
	for _, c := range res.Columns {
		b.WriteString("### " + c.Column + "\n")
		if c.Min != nil && c.Max != nil {
			b.WriteString(p.Sprintf("- Date range: %s to %s\n", c.Min.Format(dateLayout), c.Max.Format(dateLayout)))
			b.WriteString(p.Sprintf("- Range in days: %d\n", *c.RangeDays))
		} else {
			b.WriteString("- Date range: N/A\n")
		}
		b.WriteString(p.Sprintf("- Missing values: %d (%.2f%%)\n", c.Missing, c.MissingPercent))
		writeDistribution(b, p, "Day of week distribution", c.Weekdays)
		writeDistribution(b, p, "Month distribution", c.Months)
		writeDistribution(b, p, "Year distribution", c.Years)
		b.WriteString("\n")
	}
}

func writeDistribution(b *strings.Builder, p *message.Printer, title string, freq []analysis.Frequency) {
	if len(freq) == 0 {
		return
	}
	b.WriteString("\n" + title + ":\n")
	for _, f := range freq {
		b.WriteString(p.Sprintf("- %s: %d\n", f.Label, f.Count))
	}
}

func cell(s string) string { return strings.ReplaceAll(value(s), "|", "/") }

func value(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(blank)"
	}
	return s
}
