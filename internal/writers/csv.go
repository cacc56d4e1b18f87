package writers

import (
	"bufio"
	"encoding/csv"
)

// CSVWriter writes a semicolon-separated table with a header row.
type CSVWriter struct {
	out    string
	fields []string
	rows   []map[string]string
}

// NewCSVWriter creates a writer for the given output path.
func NewCSVWriter(out string) *CSVWriter {
	return &CSVWriter{out: out}
}

// Path returns the output path.
func (w *CSVWriter) Path() string { return w.out }

// AddField appends columns to the header.
func (w *CSVWriter) AddField(fields ...string) {
	w.fields = append(w.fields, fields...)
}

// AddRow appends a row. Missing columns are written empty.
func (w *CSVWriter) AddRow(row map[string]string) {
	w.rows = append(w.rows, row)
}

// Rows returns the number of data rows.
func (w *CSVWriter) Rows() int { return len(w.rows) }

// Write writes the file. It reports whether the file was written.
func (w *CSVWriter) Write(overwrite bool) (bool, error) {
	return writeFile(w.out, overwrite, func(out *bufio.Writer) error {
		cw := csv.NewWriter(out)
		cw.Comma = ';'

		if err := cw.Write(w.fields); err != nil {
			return err
		}
		record := make([]string, len(w.fields))
		for _, row := range w.rows {
			for i, f := range w.fields {
				record[i] = row[f]
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
