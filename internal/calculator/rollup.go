package calculator

import (
	"time"

	"aerokpi/internal/model"
)

// Weekly 按周一至周日分组汇总；没有数据的周不出现
func Weekly(catalog *model.Catalog, daily *model.DailyTable) *model.SummaryTable {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	out := &model.SummaryTable{Rows: []model.SummaryRow{}}
	if daily == nil {
		return out
	}
	out.Columns = append([]string{}, daily.Columns...)
	p := newPlan(catalog, daily.Columns)

	for _, g := range groupByWeek(daily.Rows) {
		out.Rows = append(out.Rows, model.SummaryRow{
			Label:  WeekLabel(g.start),
			Start:  g.start,
			End:    g.start.AddDate(0, 0, 6),
			Days:   len(g.rows),
			Values: p.aggregate(g.rows),
		})
	}
	return out
}

// Period 整个期间汇总为一行，标签 "{from} → {to}"
func Period(catalog *model.Catalog, daily *model.DailyTable, from, to time.Time) *model.SummaryTable {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	out := &model.SummaryTable{Rows: []model.SummaryRow{}}
	if daily == nil {
		return out
	}
	out.Columns = append([]string{}, daily.Columns...)
	p := newPlan(catalog, daily.Columns)

	out.Rows = append(out.Rows, model.SummaryRow{
		Label:  PeriodLabel(from, to),
		Start:  model.Day(from),
		End:    model.Day(to),
		Days:   len(daily.Rows),
		Values: p.aggregate(daily.Rows),
	})
	return out
}

type weekGroup struct {
	start time.Time
	rows  []model.DailyRow
}

// groupByWeek 按周一分组（输入已按日期升序）；以周一日期为键，跨年的同名周不会合并
func groupByWeek(rows []model.DailyRow) []weekGroup {
	var groups []weekGroup
	index := make(map[time.Time]int)
	for _, r := range rows {
		start := WeekStart(r.Date)
		i, ok := index[start]
		if !ok {
			i = len(groups)
			index[start] = i
			groups = append(groups, weekGroup{start: start})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}
