package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testboard/engine/internal/models"
)

func cases() []models.TestCase {
	return []models.TestCase{
		{CaseID: "TC_01", Description: "Login with valid credentials", Priority: "High", Status: "Pass"},
		{CaseID: "TC_02", Description: strings.Repeat("Very long description, ", 20), Priority: "Low", Status: "Fail"},
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "TEST CASES FOR LOGIN FLOW", Title("Login flow"))
	assert.Equal(t, "ALL TEST CASES", Title(""))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	f, err = ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", f.ContentType())
	assert.Equal(t, "test_cases.csv", f.Filename())
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, "", cases()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"TC_01", "Login with valid credentials", "High", "Pass"}, records[1])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Title("Login flow"), cases()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFManyRowsAndEmpty(t *testing.T) {
	many := make([]models.TestCase, 0, 120)
	for i := 0; i < 60; i++ {
		many = append(many, cases()...)
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, Title(""), many))
	assert.NotZero(t, buf.Len())

	buf.Reset()
	require.NoError(t, WritePDF(&buf, Title(""), nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestWriteCSVWrapsWriterErrors(t *testing.T) {
	disk := errors.New("disk full")
	for _, tcs := range [][]models.TestCase{nil, {{CaseID: "TC_01", Status: "Pass"}}} {
		err := WriteCSV(failingWriter{disk}, tcs)
		require.ErrorIs(t, err, disk)
		assert.ErrorContains(t, err, "write csv")
	}
}
