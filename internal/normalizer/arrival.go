package normalizer

import (
	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Arrival 到达准点：分段不等于准点分段即计为 off-time
type Arrival struct {
	base
}

// NewArrival 创建准点规范化器
func NewArrival(opts Options) *Arrival {
	return &Arrival{base: newBase(model.SourceOffTime, opts, model.KPIOffTime)}
}

// Normalize 空分段同样计为 off-time
func (n *Arrival) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table)
	if mapping == nil {
		return n.empty(), summary
	}

	onTime := parser.NormalizeColumnName(n.opts.OnTimeToken)
	acc := newAccumulator(n.columns)
	for i := range table.Rows {
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++
		if parser.NormalizeColumnName(cell(table, mapping, i, parser.FieldSegment)) == onTime {
			acc.add(day, model.KPIOffTime, decimal.Zero)
			continue
		}
		acc.inc(day, model.KPIOffTime)
	}
	return n.finish(acc, summary)
}
