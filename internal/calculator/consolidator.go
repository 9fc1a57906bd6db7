// Package calculator 合并各源日表，并生成周汇总、期间汇总与转置表
package calculator

import (
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"aerokpi/internal/logging"
	"aerokpi/internal/model"
)

// Consolidator 按日期全外连接各源日表
type Consolidator struct {
	catalog *model.Catalog
	logger  *slog.Logger
}

// NewConsolidator 创建合并器；catalog 为 nil 时使用默认目录
func NewConsolidator(catalog *model.Catalog, logger *slog.Logger) *Consolidator {
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Consolidator{catalog: catalog, logger: logger}
}

// Consolidate 合并日表并裁剪到 [from, to]（闭区间，零值表示不限）
//
// 连接在裁剪之前完成；计数列缺失补 0，均值列按填充策略保留空值；比率列按当日分子分母计算。
// 所有输入都没有数据行时返回没有任何列的空表。
func (c *Consolidator) Consolidate(tables []*model.DailyTable, from, to time.Time) *model.DailyTable {
	tables = lo.Filter(tables, func(t *model.DailyTable, _ int) bool { return t != nil })
	if lo.EveryBy(tables, func(t *model.DailyTable) bool { return t.Empty() }) {
		c.logger.Debug("no data to consolidate", "tables", len(tables))
		return model.NewDailyTable("", nil)
	}

	columns := c.columns(tables)
	kpis := make(map[string]model.KPI, len(columns))
	for _, col := range columns {
		kpis[col] = c.catalog.Resolve(col)
	}

	joined := c.join(tables, kpis)

	out := model.NewDailyTable("", columns)
	for _, d := range sortedDates(joined) {
		if !inRange(d, from, to) {
			continue
		}
		values := joined[d]
		for _, col := range columns {
			k := kpis[col]
			switch {
			case k.Kind == model.AggRatio:
				values[col] = percent(deref(values[k.Numerator]), deref(values[k.Denominator]))
			case values[col] == nil && k.Fill == model.FillZero:
				values[col] = model.Float(0)
			}
		}
		out.Rows = append(out.Rows, model.DailyRow{Date: d, Values: values})
	}

	c.logger.Debug("consolidated",
		"tables", len(tables), "columns", len(columns), "days", len(joined), "kept", len(out.Rows))
	return out
}

// columns 各表列的并集（目录顺序），加上分子分母都存在的比率列
func (c *Consolidator) columns(tables []*model.DailyTable) []string {
	var all []string
	for _, t := range tables {
		all = append(all, t.Columns...)
	}
	all = lo.Uniq(all)

	present := lo.SliceToMap(all, func(col string) (string, bool) { return col, true })
	for _, r := range c.catalog.Ratios() {
		if present[r.Numerator] && present[r.Denominator] && !present[r.Name] {
			all = append(all, r.Name)
		}
	}
	return c.catalog.OrderColumns(all)
}

// join 全外连接；同一列出现在多张表时计数相加、均值取非空观测的平均，结果与表顺序无关
func (c *Consolidator) join(tables []*model.DailyTable, kpis map[string]model.KPI) map[time.Time]map[string]*float64 {
	type cell struct {
		sum float64
		n   int
	}
	cells := make(map[time.Time]map[string]*cell)

	for _, t := range tables {
		for _, row := range t.Rows {
			d := model.Day(row.Date)
			dayCells, ok := cells[d]
			if !ok {
				dayCells = make(map[string]*cell)
				cells[d] = dayCells
			}
			for _, col := range t.Columns {
				if kpis[col].Kind == model.AggRatio {
					continue
				}
				v := row.Value(col)
				if v == nil {
					continue
				}
				cl, ok := dayCells[col]
				if !ok {
					cl = &cell{}
					dayCells[col] = cl
				}
				cl.sum += *v
				cl.n++
			}
		}
	}

	out := make(map[time.Time]map[string]*float64, len(cells))
	for d, dayCells := range cells {
		values := make(map[string]*float64, len(kpis))
		for col := range kpis {
			values[col] = nil
		}
		for col, cl := range dayCells {
			if kpis[col].Kind == model.AggMean {
				values[col] = model.Float(cl.sum / float64(cl.n))
			} else {
				values[col] = model.Float(cl.sum)
			}
		}
		out[d] = values
	}
	return out
}

func sortedDates[V any](m map[time.Time]V) []time.Time {
	dates := lo.Keys(m)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func inRange(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(model.Day(from)) {
		return false
	}
	if !to.IsZero() && d.After(model.Day(to)) {
		return false
	}
	return true
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
