// Package exporter 把报表写成多工作表 Excel 或 CSV
package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"aerokpi/internal/model"
)

// 工作表名
const (
	SheetDaily      = "Diario"
	SheetWeekly     = "Semanal"
	SheetPeriod     = "Periodo"
	SheetTransposed = "Transpuesto"
	SheetSources    = "Fuentes"
)

// ProgressEvent 导出进度事件（用于 UI 展示）
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

func reportProgress(progress func(ProgressEvent), percent int, stage string) {
	if progress == nil {
		return
	}
	percent = max(0, min(100, percent))
	progress(ProgressEvent{Percent: percent, Stage: stage})
}

// Exporter 报表导出器
type Exporter struct {
	catalog *model.Catalog
}

// NewExporter 创建导出器；catalog 决定各列的数字格式
func NewExporter(catalog *model.Catalog) *Exporter {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	return &Exporter{catalog: catalog}
}

// styles 工作簿样式
type styles struct {
	header   int
	section  int
	currency int
	percent  int
	decimal  int
	integer  int
}

func newStyles(f *excelize.File) (*styles, error) {
	s := &styles{}
	var err error
	currency, decimals, percent, integer := "$#,##0", "0.00", `0.00"%"`, "#,##0"

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&s.section, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#1E293B"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#CBD5E1"}, Pattern: 1},
		}},
		{&s.currency, &excelize.Style{CustomNumFmt: &currency}},
		{&s.percent, &excelize.Style{CustomNumFmt: &percent}},
		{&s.decimal, &excelize.Style{CustomNumFmt: &decimals}},
		{&s.integer, &excelize.Style{CustomNumFmt: &integer}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
	}
	return s, nil
}

// forKPI 按指标口径选择数字格式
func (s *styles) forKPI(k model.KPI) int {
	switch {
	case k.Currency:
		return s.currency
	case k.Kind == model.AggRatio:
		return s.percent
	case k.Kind == model.AggMean:
		return s.decimal
	default:
		return s.integer
	}
}

// Export 生成工作簿：Diario / Semanal / Periodo / Transpuesto / Fuentes
func (e *Exporter) Export(report *model.Report, progress func(ProgressEvent)) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []struct {
		sheet string
		write func(*excelize.File, string, *styles) error
	}{
		{SheetDaily, func(f *excelize.File, sheet string, st *styles) error { return e.writeDaily(f, sheet, st, report.Daily) }},
		{SheetWeekly, func(f *excelize.File, sheet string, st *styles) error {
			return e.writeSummary(f, sheet, st, report.Weekly, []string{"Semana", "Desde", "Hasta", "Días"})
		}},
		{SheetPeriod, func(f *excelize.File, sheet string, st *styles) error {
			return e.writeSummary(f, sheet, st, report.Period, []string{"Periodo", "Desde", "Hasta", "Días"})
		}},
		{SheetTransposed, func(f *excelize.File, sheet string, st *styles) error {
			return e.writeTransposed(f, sheet, st, report.Transposed)
		}},
		{SheetSources, func(f *excelize.File, sheet string, st *styles) error { return writeSources(f, sheet, st, report.Sources) }},
	}

	for i, step := range steps {
		reportProgress(progress, i*100/len(steps), step.sheet)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", step.sheet); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(step.sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := step.write(f, step.sheet, st); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write %s: %w", step.sheet, err)
		}
	}

	f.SetActiveSheet(0)
	reportProgress(progress, 100, "done")
	return f, nil
}

// WriteFile 导出到文件
func (e *Exporter) WriteFile(report *model.Report, path string, progress func(ProgressEvent)) error {
	f, err := e.Export(report, progress)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (e *Exporter) writeDaily(f *excelize.File, sheet string, st *styles, t *model.DailyTable) error {
	if t == nil {
		t = model.NewDailyTable("", nil)
	}
	header := append([]interface{}{"Fecha"}, toInterfaces(t.Columns)...)
	if err := writeHeader(f, sheet, st, header); err != nil {
		return err
	}

	for i, r := range t.Rows {
		row := []interface{}{r.Date.Format(model.DateLayout)}
		for _, col := range t.Columns {
			row = append(row, cellValue(r.Value(col)))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := e.styleColumns(f, sheet, st, t.Columns, 2, len(t.Rows)+1); err != nil {
		return err
	}
	return finishSheet(f, sheet, len(header), 12, 14)
}

func (e *Exporter) writeSummary(f *excelize.File, sheet string, st *styles, t *model.SummaryTable, lead []string) error {
	if t == nil {
		t = &model.SummaryTable{}
	}
	header := append(toInterfaces(lead), toInterfaces(t.Columns)...)
	if err := writeHeader(f, sheet, st, header); err != nil {
		return err
	}

	for i, r := range t.Rows {
		row := []interface{}{r.Label, r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout), r.Days}
		for _, col := range t.Columns {
			row = append(row, cellValue(r.Values[col]))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := e.styleColumns(f, sheet, st, t.Columns, len(lead)+1, len(t.Rows)+1); err != nil {
		return err
	}
	return finishSheet(f, sheet, len(header), 26, 14)
}

func (e *Exporter) writeTransposed(f *excelize.File, sheet string, st *styles, t *model.TransposedTable) error {
	if t == nil {
		t = &model.TransposedTable{}
	}
	header := []interface{}{"KPI"}
	for _, c := range t.Columns {
		header = append(header, c.Label)
	}
	if err := writeHeader(f, sheet, st, header); err != nil {
		return err
	}

	for i, r := range t.Rows {
		rowNum := i + 2
		row := []interface{}{r.Label}
		for _, v := range r.Values {
			row = append(row, cellValue(v))
		}
		if err := setRow(f, sheet, rowNum, row); err != nil {
			return err
		}

		style := st.section
		if !r.Header {
			style = st.forKPI(e.catalog.Resolve(r.Label))
		}
		first := 1
		if !r.Header {
			first = 2
		}
		if err := styleRange(f, sheet, first, rowNum, len(header), rowNum, style); err != nil {
			return err
		}
	}
	return finishSheet(f, sheet, len(header), 28, 16)
}

func writeSources(f *excelize.File, sheet string, st *styles, sources []model.SourceSummary) error {
	header := []interface{}{"Fuente", "Provisto", "Filas leídas", "Filas usadas", "Filas filtradas", "Filas descartadas", "Días", "Columnas faltantes"}
	if err := writeHeader(f, sheet, st, header); err != nil {
		return err
	}
	for i, s := range sources {
		provided := "No"
		if s.Provided {
			provided = "Sí"
		}
		row := []interface{}{s.Label, provided, s.RowsRead, s.RowsUsed, s.RowsFiltered, s.RowsDropped, s.Days, strings.Join(s.MissingColumns, ", ")}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return finishSheet(f, sheet, len(header), 22, 16)
}

// styleColumns 按指标设置数据列格式
func (e *Exporter) styleColumns(f *excelize.File, sheet string, st *styles, columns []string, firstCol, lastRow int) error {
	if lastRow < 2 {
		return nil
	}
	for i, col := range columns {
		c := firstCol + i
		if err := styleRange(f, sheet, c, 2, c, lastRow, st.forKPI(e.catalog.Resolve(col))); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, st *styles, header []interface{}) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	return styleRange(f, sheet, 1, 1, len(header), 1, st.header)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRange(f *excelize.File, sheet string, col1, row1, col2, row2, style int) error {
	if col2 < col1 {
		return nil
	}
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

// finishSheet 冻结首行并设置列宽
func finishSheet(f *excelize.File, sheet string, cols int, firstWidth, width float64) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", firstWidth); err != nil {
		return err
	}
	if cols > 1 {
		last, err := excelize.ColumnNumberToName(cols)
		if err != nil {
			return err
		}
		return f.SetColWidth(sheet, "B", last, width)
	}
	return nil
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
