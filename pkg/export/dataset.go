package export

import "fmt"

// Dataset is tabular export content; rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Records flattens rows in header order.
func (d Dataset) Records() [][]string {
	records := make([][]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, header := range d.Headers {
			record[i] = row[header]
		}
		records = append(records, record)
	}
	return records
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

// Renderer turns a dataset into a file body.
type Renderer interface {
	Render(Dataset) ([]byte, error)
}
