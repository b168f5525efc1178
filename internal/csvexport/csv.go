// Package csvexport turns list rows into downloadable CSV or XLSX files.
package csvexport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Column describes one exported column: the row key it reads and the header
// label written for it.
type Column struct {
	Key   string
	Label string
}

// Row maps column keys to already-formatted cell values.
type Row map[string]string

// Write emits a header row of labels followed by one line per row. A field is
// quoted only when it contains a comma or a double quote.
func Write(w io.Writer, cols []Column, rows []Row) error {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := writeLine(w, header); err != nil {
		return err
	}
	line := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			line[i] = r[c.Key]
		}
		if err := writeLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Bytes is Write into memory.
func Bytes(cols []Column, rows []Row) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, cols, rows)
	return buf.Bytes()
}

func writeLine(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(f))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func quote(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Format selects the download encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format, defaulting to CSV.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", v)
	}
}

// Ext is the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Encode renders the table in the given format.
func Encode(f Format, cols []Column, rows []Row) ([]byte, error) {
	if f == FormatXLSX {
		return XLSXBytes(cols, rows)
	}
	return Bytes(cols, rows), nil
}

// Serve writes the table as an attachment named base.<ext> so the browser
// downloads it instead of rendering it.
func Serve(w http.ResponseWriter, f Format, base string, cols []Column, rows []Row) error {
	data, err := Encode(f, cols, rows)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("%s.%s", base, f.Ext())
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(data)
	return err
}
