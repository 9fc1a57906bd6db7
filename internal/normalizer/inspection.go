package normalizer

import (
	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// inspectionDimensions 三个检查维度：字段、合格列、不合格列
var inspectionDimensions = []struct {
	field string
	ok    string
	nok   string
}{
	{parser.FieldExterior, model.KPIExteriorOK, model.KPIExteriorNOK},
	{parser.FieldInterior, model.KPIInteriorOK, model.KPIInteriorNOK},
	{parser.FieldDriver, model.KPIDriverOK, model.KPIDriverNOK},
}

var hundred = decimal.NewFromInt(100)

// Inspection 车辆检查
type Inspection struct {
	base
}

// NewInspection 创建车辆检查规范化器
func NewInspection(opts Options) *Inspection {
	return &Inspection{base: newBase(model.SourceInspection, opts,
		model.KPIInspections,
		model.KPIExteriorOK, model.KPIExteriorNOK,
		model.KPIInteriorOK, model.KPIInteriorNOK,
		model.KPIDriverOK, model.KPIDriverNOK,
	)}
}

// Normalize 合规率 == 100 记合格，< 100 记不合格；空值两边都不计
func (n *Inspection) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
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
		summary.RowsUsed++
		acc.inc(day, model.KPIInspections)

		for _, dim := range inspectionDimensions {
			acc.add(day, dim.ok, decimal.Zero)
			acc.add(day, dim.nok, decimal.Zero)

			v, ok := parser.ParseNumber(cell(table, mapping, i, dim.field))
			if !ok {
				continue
			}
			switch {
			case v.Equal(hundred):
				acc.inc(day, dim.ok)
			case v.LessThan(hundred):
				acc.inc(day, dim.nok)
			}
		}
	}
	return n.finish(acc, summary)
}
