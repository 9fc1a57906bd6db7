package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Support 客服工单表现（仅统计指定客服队列）
type Support struct {
	base
}

// supportMeans 均值列与来源字段
var supportMeans = []struct {
	column string
	field  string
}{
	{model.KPICSAT, parser.FieldCSAT},
	{model.KPINPS, parser.FieldNPS},
	{model.KPIFIRT, parser.FieldFIRT},
	{model.KPIFIRTPct, parser.FieldFIRTPct},
	{model.KPIFURT, parser.FieldFURT},
	{model.KPIFURTPct, parser.FieldFURTPct},
}

// NewSupport 创建客服表现规范化器
func NewSupport(opts Options) *Support {
	return &Support{base: newBase(model.SourcePerformance, opts,
		model.KPISurveys,
		model.KPICSAT, model.KPINPS,
		model.KPIFIRT, model.KPIFIRTPct,
		model.KPIFURT, model.KPIFURTPct,
		model.KPIReopen, model.KPITickets, model.KPITicketsResolved,
	)}
}

// Normalize 队列外的行整体排除；均值只计可解析的观测
func (n *Support) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table)
	if mapping == nil {
		return n.empty(), summary
	}

	group := strings.TrimSpace(n.opts.SupportGroup)
	means := make([]string, 0, len(supportMeans))
	for _, m := range supportMeans {
		means = append(means, m.column)
	}

	acc := newAccumulator(n.columns, means...)
	for i := range table.Rows {
		if parser.NormalizeColumnName(cell(table, mapping, i, parser.FieldGroup)) != group {
			summary.RowsFiltered++
			continue
		}
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++

		acc.inc(day, model.KPITickets)
		acc.add(day, model.KPISurveys, decimal.Zero)
		acc.add(day, model.KPITicketsResolved, decimal.Zero)
		acc.add(day, model.KPIReopen, decimal.Zero)

		csat := strings.TrimSpace(cell(table, mapping, i, parser.FieldCSAT))
		nps := strings.TrimSpace(cell(table, mapping, i, parser.FieldNPS))
		if csat != "" || nps != "" {
			acc.inc(day, model.KPISurveys)
		}
		if mapping.Has(parser.FieldStatus) && n.opts.Resolved(cell(table, mapping, i, parser.FieldStatus)) {
			acc.inc(day, model.KPITicketsResolved)
		}
		if reopen, ok := parser.ParseNumber(cell(table, mapping, i, parser.FieldReopen)); ok {
			acc.add(day, model.KPIReopen, reopen)
		}
		for _, m := range supportMeans {
			acc.observe(day, m.column, parser.ParseFloatPtr(cell(table, mapping, i, m.field)))
		}
	}
	return n.finish(acc, summary)
}
