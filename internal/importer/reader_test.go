package importer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aerokpi/internal/model"
	"aerokpi/internal/normalizer"
)

func TestRead_CSVSemicolonWithBOM(t *testing.T) {
	t.Parallel()

	data := "\xef\xbb\xbfDate Time;Total Audit Score\n2024-11-04;85,5%\n\n2024-11-05;90\n"
	table, err := NewReader().Read("auditorias.csv", strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date Time", "Total Audit Score"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "85,5%", table.Rows[0][1])
	assert.Equal(t, "auditorias.csv", table.Name)
}

func TestRead_CSVLatin1Fallback(t *testing.T) {
	t.Parallel()

	data := []byte("Fecha Auditor\xeda,Nota\n2024-11-04,90\n")
	table, err := NewReader().Read("a.csv", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Fecha Auditoría", table.Headers[0])
}

func TestSniffSeparator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want rune
	}{
		{"a,b,c\n1,2,3", ','},
		{"a;b;c\n1;2;3", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"\n\"x,y,z\";b\n1;2", ';'},
		{"single", ','},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sniffSeparator([]byte(tc.in)), tc.in)
	}
}

func TestRead_XLSXDateCells(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"tm_created_local_at", "qt_price_local", "ds_product_name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC), 11990, "van_exclusive"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{45602, "5.000", "van_compartida"}))
	dateOnly, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A4", "A4", dateOnly))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := NewReader().Read("ventas.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"tm_created_local_at", "qt_price_local", "ds_product_name"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "11990", table.Rows[0][1])

	daily, summary := normalizer.NewSales(normalizer.DefaultOptions()).Normalize(table)
	assert.Equal(t, 2, summary.RowsUsed)
	assert.Equal(t, 0, summary.RowsDropped)

	totals := map[string]float64{}
	for _, r := range daily.Rows {
		if v := r.Value(model.KPISalesTotal); v != nil {
			totals[r.Date.Format(model.DateLayout)] = *v
		}
	}
	assert.Equal(t, map[string]float64{"2024-11-05": 11990, "2024-11-06": 5000}, totals)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "viajes_30.csv")
	require.NoError(t, os.WriteFile(path, []byte("fecha\n2024-11-04\n2024-11-05\n"), 0o644))

	table, err := NewReader().ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "viajes_30.csv", table.Name)
	assert.Len(t, table.Rows, 2)
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewReader().Read("report.pdf", strings.NewReader("%PDF"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), err)
	assert.ErrorContains(t, err, "report.pdf")

	_, err = NewReader().Read("empty.csv", strings.NewReader("\n \n"))
	assert.True(t, errors.Is(err, ErrEmptyInput), err)

	_, err = NewReader().Read("broken.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}
