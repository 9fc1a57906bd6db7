package calculator

import (
	"github.com/samber/lo"

	"aerokpi/internal/model"
)

// Transposer 生成 KPI × 日期 矩阵，穿插周汇总列和月汇总列，KPI 行按分组排列
type Transposer struct {
	catalog *model.Catalog
}

// NewTransposer 创建转置器
func NewTransposer(catalog *model.Catalog) *Transposer {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	return &Transposer{catalog: catalog}
}

// Transpose 按目录口径转置日表
func (t *Transposer) Transpose(daily *model.DailyTable) *model.TransposedTable {
	if daily == nil {
		return &model.TransposedTable{}
	}
	sums, means, pcts := t.catalog.Split(daily.Columns)
	return t.TransposeColumns(daily, sums, means, pcts)
}

// TransposeColumns 按指定的求和列、均值列、比率列转置
//
// 周汇总列插在每周最后一个出现的日期之后；月汇总列插在每月最后一个出现的日期之后，
// 覆盖该月 1 日至该日期。
func (t *Transposer) TransposeColumns(daily *model.DailyTable, sums, means, pcts []string) *model.TransposedTable {
	out := &model.TransposedTable{Columns: []model.TransposedColumn{}, Rows: []model.TransposedRow{}}
	if daily == nil {
		return out
	}

	p := explicitPlan(t.catalog, sums, means, pcts)
	kpis := t.catalog.OrderColumns(lo.Uniq(p.columns))

	// 每列的取值：日期列取原值，汇总列按口径聚合
	var columnValues []map[string]*float64
	rows := daily.Rows
	for i, r := range rows {
		out.Columns = append(out.Columns, model.TransposedColumn{
			Label: DayColumnLabel(r.Date),
			Kind:  model.ColumnDay,
			From:  r.Date,
			To:    r.Date,
		})
		columnValues = append(columnValues, r.Values)

		last := i == len(rows)-1
		if last || !WeekStart(rows[i+1].Date).Equal(WeekStart(r.Date)) {
			start := WeekStart(r.Date)
			out.Columns = append(out.Columns, model.TransposedColumn{
				Label: WeekColumnLabel(r.Date),
				Kind:  model.ColumnWeek,
				From:  start,
				To:    start.AddDate(0, 0, 6),
			})
			columnValues = append(columnValues, p.aggregate(rowsBetween(rows, i, func(x model.DailyRow) bool {
				return WeekStart(x.Date).Equal(start)
			})))
		}
		if last || !sameMonth(rows[i+1].Date, r.Date) {
			first := r.Date.AddDate(0, 0, 1-r.Date.Day())
			out.Columns = append(out.Columns, model.TransposedColumn{
				Label: MonthColumnLabel(r.Date),
				Kind:  model.ColumnMonth,
				From:  first,
				To:    r.Date,
			})
			columnValues = append(columnValues, p.aggregate(rowsBetween(rows, i, func(x model.DailyRow) bool {
				return sameMonth(x.Date, r.Date)
			})))
		}
	}

	for _, section := range t.catalog.Sections() {
		var members []string
		for _, k := range kpis {
			if t.catalog.Resolve(k).Section == section {
				members = append(members, k)
			}
		}
		if len(members) == 0 {
			continue
		}
		out.Rows = append(out.Rows, model.TransposedRow{
			Label:   "=== " + section + " ===",
			Section: section,
			Header:  true,
		})
		for _, k := range members {
			values := make([]*float64, len(columnValues))
			for i, cv := range columnValues {
				values[i] = cv[k]
			}
			out.Rows = append(out.Rows, model.TransposedRow{Label: k, Section: section, Values: values})
		}
	}
	return out
}

// rowsBetween 从 end 向前收集满足条件的连续行（含 end）
func rowsBetween(rows []model.DailyRow, end int, match func(model.DailyRow) bool) []model.DailyRow {
	start := end
	for start > 0 && match(rows[start-1]) {
		start--
	}
	return rows[start : end+1]
}
