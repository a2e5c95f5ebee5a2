// Package export renders filtered test case lists as printable tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/testboard/engine/internal/models"
)

// Header is the column order of every export format.
var Header = []string{"ID", "Description", "Priority", "Status"}

// Format identifies an export encoding.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// ParseFormat accepts pdf (the default when empty) or csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// Filename is the download name for f.
func (f Format) Filename() string { return "test_cases." + string(f) }

// Title names the export after the feature in scope, or the whole
// collection when featureName is empty.
func Title(featureName string) string {
	if strings.TrimSpace(featureName) == "" {
		return "ALL TEST CASES"
	}
	return "TEST CASES FOR " + strings.ToUpper(featureName)
}

// Rows flattens tcs into table rows in Header order.
func Rows(tcs []models.TestCase) [][]string {
	rows := make([][]string, 0, len(tcs))
	for _, tc := range tcs {
		rows = append(rows, []string{tc.CaseID, tc.Description, tc.Priority, tc.Status})
	}
	return rows
}

// Write encodes tcs in format f.
func Write(w io.Writer, f Format, title string, tcs []models.TestCase) error {
	if f == FormatCSV {
		return WriteCSV(w, tcs)
	}
	return WritePDF(w, title, tcs)
}

// WriteCSV writes a header row followed by one row per test case.
func WriteCSV(w io.Writer, tcs []models.TestCase) error {
	rows := append([][]string{Header}, Rows(tcs)...)
	if err := csv.NewWriter(w).WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
