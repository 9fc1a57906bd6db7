package normalizer

import (
	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Sales 销售：金额与笔数，按拼车/专车拆分
type Sales struct {
	base
}

// NewSales 创建销售规范化器
func NewSales(opts Options) *Sales {
	return &Sales{base: newBase(model.SourceSales, opts,
		model.KPISalesTotal, model.KPISalesShared, model.KPISalesExclusive,
		model.KPISalesCount, model.KPISalesSharedCount, model.KPISalesExclusiveCount,
	)}
}

// Normalize 金额去掉货币符号与千分位后按日求和；金额无法解析时该笔计数保留、金额记 0
func (n *Sales) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table)
	if mapping == nil {
		return n.empty(), summary
	}

	shared := parser.NormalizeToken(n.opts.SharedProduct)
	exclusive := parser.NormalizeToken(n.opts.ExclusiveProduct)

	acc := newAccumulator(n.columns)
	for i := range table.Rows {
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++

		amount, ok := parser.ParseMoney(cell(table, mapping, i, parser.FieldPrice))
		if !ok {
			amount = decimal.Zero
		}
		acc.add(day, model.KPISalesTotal, amount)
		acc.inc(day, model.KPISalesCount)
		acc.add(day, model.KPISalesShared, decimal.Zero)
		acc.add(day, model.KPISalesExclusive, decimal.Zero)
		acc.add(day, model.KPISalesSharedCount, decimal.Zero)
		acc.add(day, model.KPISalesExclusiveCount, decimal.Zero)

		switch parser.NormalizeToken(cell(table, mapping, i, parser.FieldProduct)) {
		case shared:
			acc.add(day, model.KPISalesShared, amount)
			acc.inc(day, model.KPISalesSharedCount)
		case exclusive:
			acc.add(day, model.KPISalesExclusive, amount)
			acc.inc(day, model.KPISalesExclusiveCount)
		}
	}
	return n.finish(acc, summary)
}
