package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *ExportTable {
	return &ExportTable{
		Name:    "Сотрудники",
		Headers: []string{"ID", "ФИО", "Бюджет"},
		Rows: [][]interface{}{
			{uint64(1), "Асель; мл.", int64(5000)},
			{uint64(2), "Бакыт", nil},
		},
	}
}

func TestWriteExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, sampleTable(), ExportFormatCSV))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "нужен BOM для Excel")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID;ФИО;Бюджет", lines[0])
	assert.Equal(t, `1;"Асель; мл.";5000`, lines[1])
	assert.Equal(t, "2;Бакыт;", lines[2])
}

func TestWriteExport_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, sampleTable(), ExportFormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Сотрудники")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "ФИО", "Бюджет"}, rows[0])
	assert.Equal(t, "Асель; мл.", rows[1][1])
	assert.Equal(t, "5000", rows[1][2])
}

func TestExportHelpers(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "orders_2026-03-10.xlsx", ExportFileName("orders", ExportFormatXLSX, now))
	assert.Equal(t, "text/csv; charset=utf-8", ExportContentType(ExportFormatCSV))
	assert.Contains(t, ExportContentType(ExportFormatXLSX), "spreadsheetml")
}
