package normalizer

import (
	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// LongTrip 时长超过阈值的行程
type LongTrip struct {
	base
}

// NewLongTrip 创建长行程规范化器（阈值默认 90 分钟）
func NewLongTrip(opts Options) *LongTrip {
	return &LongTrip{base: newBase(model.SourceTrip90, opts, model.KPITrip90)}
}

// Normalize 时长无法解析的行丢弃
func (n *LongTrip) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table)
	if mapping == nil {
		return n.empty(), summary
	}

	acc := newAccumulator(n.columns)
	for i := range table.Rows {
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		minutes, ok := parser.ParseFloat(cell(table, mapping, i, parser.FieldDuration))
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++
		if minutes > n.opts.LongTripMinutes {
			acc.inc(day, model.KPITrip90)
		} else {
			acc.add(day, model.KPITrip90, decimal.Zero)
		}
	}
	return n.finish(acc, summary)
}

// NewTrip30 超过 30 分钟的行程；来源已预先筛选，每行计一次
func NewTrip30(opts Options) Normalizer {
	return newEvents(model.SourceTrip30, model.KPITrip30, opts)
}
