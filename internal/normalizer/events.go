package normalizer

import (
	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Events 一行即一次事件的计数型来源
type Events struct {
	base
	column string
	// filter 为 nil 时不过滤；否则返回 false 的行被排除
	filter func(table *model.SourceTable, mapping *parser.Mapping, row int) bool
	// requires 过滤所依赖的字段
	requires []string
	// unfiltered 本应过滤却未配置过滤条件，统计范围变宽
	unfiltered bool
}

func newEvents(source model.SourceKind, column string, opts Options) *Events {
	return &Events{base: newBase(source, opts, column), column: column}
}

// NewAbandoned 放弃客户
func NewAbandoned(opts Options) Normalizer {
	return newEvents(model.SourceAbandoned, model.KPIAbandoned, opts)
}

// NewMessaging 消息渠道工单
func NewMessaging(opts Options) Normalizer {
	return newEvents(model.SourceMessaging, model.KPIMessagingTickets, opts)
}

// NewRescue 救援调度；配置了调度员时只统计该调度员（忽略大小写与空白），否则统计全部并告警
func NewRescue(opts Options) Normalizer {
	e := newEvents(model.SourceRescue, model.KPIRescues, opts)
	dispatcher := parser.NormalizeToken(e.opts.RescueDispatcher)
	if dispatcher == "" {
		e.unfiltered = true
		return e
	}
	e.requires = []string{parser.FieldDispatcher}
	e.filter = func(table *model.SourceTable, mapping *parser.Mapping, row int) bool {
		return parser.NormalizeToken(cell(table, mapping, row, parser.FieldDispatcher)) == dispatcher
	}
	return e
}

// Normalize 按日计数
func (n *Events) Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary) {
	mapping, summary := n.begin(table, n.requires...)
	if mapping == nil {
		return n.empty(), summary
	}

	if n.unfiltered && !table.Empty() {
		n.opts.Logger.Warn("rescue dispatcher not configured, counting every dispatcher",
			"source", n.source, "table", table.Name, "setting", "report.rescue_dispatcher")
	}

	acc := newAccumulator(n.columns)
	for i := range table.Rows {
		if n.filter != nil && !n.filter(table, mapping, i) {
			summary.RowsFiltered++
			continue
		}
		day, ok := n.date(table, mapping, i)
		if !ok {
			summary.RowsDropped++
			continue
		}
		summary.RowsUsed++
		acc.inc(day, n.column)
	}
	return n.finish(acc, summary)
}
