package normalizer

import (
	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Audit 质量审核：每行计一次审核，分数求均值
type Audit struct {
	base
}

// NewAudit 创建审核规范化器
func NewAudit(opts Options) *Audit {
	return &Audit{base: newBase(model.SourceAudit, opts, model.KPIAudits, model.KPIAuditScore)}
}

// Normalize 分数去掉百分号、兼容逗号小数
func (n *Audit) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table)
	if mapping == nil {
		return n.empty(), summary
	}

	acc := newAccumulator(n.columns, model.KPIAuditScore)
	for i := range table.Rows {
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++
		acc.inc(day, model.KPIAudits)
		acc.observe(day, model.KPIAuditScore, parser.ParseFloatPtr(cell(table, mapping, i, parser.FieldScore)))
	}
	return n.finish(acc, summary)
}
