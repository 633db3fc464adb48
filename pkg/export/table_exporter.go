package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// TableExporter renders datasets as a plain-text table.
type TableExporter struct{}

// NewTableExporter constructs a text table exporter.
func NewTableExporter() *TableExporter {
	return &TableExporter{}
}

// Render writes the optional title followed by an ASCII table.
func (e *TableExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("txt"); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if data.Title != "" {
		fmt.Fprintf(buf, "%s\n\n", data.Title)
	}
	if err := WriteTable(buf, data.Headers, data.Records()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTable prints headers and records as an ASCII table to w.
func WriteTable(w io.Writer, headers []string, records [][]string) error {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
	}))
	table.Header(toAny(headers)...)
	for _, record := range records {
		if err := table.Append(toAny(record)...); err != nil {
			return fmt.Errorf("append table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
