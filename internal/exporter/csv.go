package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"aerokpi/internal/model"
)

// utf8BOM Excel 打开 CSV 时据此识别 UTF-8
const utf8BOM = "\ufeff"

// CSV 文件名
const (
	CSVDaily      = "diario.csv"
	CSVWeekly     = "semanal.csv"
	CSVPeriod     = "periodo.csv"
	CSVTransposed = "transpuesto.csv"
)

// WriteDailyCSV 写日表
func WriteDailyCSV(w io.Writer, t *model.DailyTable) error {
	if t == nil {
		t = model.NewDailyTable("", nil)
	}
	records := [][]string{append([]string{"Fecha"}, t.Columns...)}
	for _, r := range t.Rows {
		rec := []string{r.Date.Format(model.DateLayout)}
		for _, col := range t.Columns {
			rec = append(rec, formatValue(r.Value(col)))
		}
		records = append(records, rec)
	}
	return writeCSV(w, records)
}

// WriteSummaryCSV 写周表或期间表
func WriteSummaryCSV(w io.Writer, t *model.SummaryTable) error {
	if t == nil {
		t = &model.SummaryTable{}
	}
	records := [][]string{append([]string{"Etiqueta", "Desde", "Hasta", "Días"}, t.Columns...)}
	for _, r := range t.Rows {
		rec := []string{r.Label, r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout), strconv.Itoa(r.Days)}
		for _, col := range t.Columns {
			rec = append(rec, formatValue(r.Values[col]))
		}
		records = append(records, rec)
	}
	return writeCSV(w, records)
}

// WriteTransposedCSV 写转置表；分组标题行只有首列
func WriteTransposedCSV(w io.Writer, t *model.TransposedTable) error {
	if t == nil {
		t = &model.TransposedTable{}
	}
	header := []string{"KPI"}
	for _, c := range t.Columns {
		header = append(header, c.Label)
	}
	records := [][]string{header}
	for _, r := range t.Rows {
		rec := make([]string, len(header))
		rec[0] = r.Label
		for i, v := range r.Values {
			if i+1 < len(rec) {
				rec[i+1] = formatValue(v)
			}
		}
		records = append(records, rec)
	}
	return writeCSV(w, records)
}

// WriteCSVDir 把四张表分别写入目录，返回写出的文件路径
func WriteCSVDir(dir string, report *model.Report) ([]string, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CSVDaily, func(w io.Writer) error { return WriteDailyCSV(w, report.Daily) }},
		{CSVWeekly, func(w io.Writer) error { return WriteSummaryCSV(w, report.Weekly) }},
		{CSVPeriod, func(w io.Writer) error { return WriteSummaryCSV(w, report.Period) }},
		{CSVTransposed, func(w io.Writer) error { return WriteTransposedCSV(w, report.Transposed) }},
	}

	var written []string
	for _, file := range files {
		path := filepath.Join(dir, file.name)
		if err := writeFile(path, file.write); err != nil {
			return written, fmt.Errorf("write %s: %w", file.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, records [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// formatValue 空值写空串
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
