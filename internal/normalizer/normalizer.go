// Package normalizer 把各来源原始表规范化为按日聚合的指标表
package normalizer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aerokpi/internal/logging"
	"aerokpi/internal/model"
	"aerokpi/internal/parser"
)

// Normalizer 单源规范化器
//
// Normalize 从不返回错误：必需列缺失时返回列齐全的空表，行级解析失败只丢弃该行。
type Normalizer interface {
	Source() model.SourceKind
	Columns() []string
	Normalize(table *model.SourceTable) (*model.DailyTable, model.SourceSummary)
}

// TicketClassifier 判定工单是否已解决
type TicketClassifier func(status string) bool

// 已解决口径
const (
	ResolvedNotPending = "not_pending"
	ResolvedSolved     = "solved"
)

// NotPending 非 pending 即视为已解决；空状态不算
func NotPending(status string) bool {
	s := parser.NormalizeToken(status)
	return s != "" && s != "pending" && s != "pendiente"
}

// Solved 仅 solved 视为已解决
func Solved(status string) bool {
	s := parser.NormalizeToken(status)
	return s == "solved" || s == "resuelto"
}

// ClassifierFor 按配置名返回判定函数
func ClassifierFor(mode string) (TicketClassifier, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ResolvedNotPending:
		return NotPending, nil
	case ResolvedSolved:
		return Solved, nil
	}
	return nil, fmt.Errorf("unknown resolved mode %q", mode)
}

// Options 规范化参数
type Options struct {
	Logger           *slog.Logger
	Dates            *parser.DateParser
	SupportGroup     string
	Resolved         TicketClassifier
	OnTimeToken      string
	LongTripMinutes  float64
	RescueDispatcher string
	SharedProduct    string
	ExclusiveProduct string
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		Dates:            parser.NewDateParser(),
		SupportGroup:     "C_Ops Support",
		Resolved:         NotPending,
		OnTimeToken:      "02. A tiempo (0-20 min antes)",
		LongTripMinutes:  90,
		SharedProduct:    "van_compartida",
		ExclusiveProduct: "van_exclusive",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Dates == nil {
		o.Dates = d.Dates
	}
	if o.SupportGroup == "" {
		o.SupportGroup = d.SupportGroup
	}
	if o.Resolved == nil {
		o.Resolved = d.Resolved
	}
	if o.OnTimeToken == "" {
		o.OnTimeToken = d.OnTimeToken
	}
	if o.LongTripMinutes <= 0 {
		o.LongTripMinutes = d.LongTripMinutes
	}
	if o.SharedProduct == "" {
		o.SharedProduct = d.SharedProduct
	}
	if o.ExclusiveProduct == "" {
		o.ExclusiveProduct = d.ExclusiveProduct
	}
	return o
}

// All 按固定顺序返回全部规范化器
func All(opts Options) []Normalizer {
	opts = opts.withDefaults()
	return []Normalizer{
		NewSales(opts),
		NewSupport(opts),
		NewAudit(opts),
		NewArrival(opts),
		NewLongTrip(opts),
		NewTrip30(opts),
		NewInspection(opts),
		NewAbandoned(opts),
		NewRescue(opts),
		NewMessaging(opts),
	}
}

// base 各规范化器共用的表头解析与统计
type base struct {
	source  model.SourceKind
	columns []string
	opts    Options
}

func newBase(source model.SourceKind, opts Options, columns ...string) base {
	return base{source: source, columns: columns, opts: opts.withDefaults()}
}

func (b *base) Source() model.SourceKind { return b.source }

func (b *base) Columns() []string {
	out := make([]string, len(b.columns))
	copy(out, b.columns)
	return out
}

func (b *base) empty() *model.DailyTable {
	return model.NewDailyTable(b.source, b.columns)
}

// begin 解析表头；必需列缺失时返回 nil mapping
func (b *base) begin(table *model.SourceTable, required ...string) (*parser.Mapping, model.SourceSummary) {
	summary := model.SourceSummary{Source: b.source, Label: b.source.Label()}
	if table == nil {
		return nil, summary
	}
	summary.Provided = true
	summary.RowsRead = len(table.Rows)

	mapping := parser.NewFieldMapper(parser.SchemaFor(b.source)).Map(table.Headers)
	summary.Aliases = mapping.Columns()
	summary.MissingColumns = mapping.Missing

	missing := append([]string{}, mapping.MissingRequired...)
	for _, f := range required {
		if !mapping.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		if !table.Empty() {
			b.opts.Logger.Warn("required columns missing, source skipped",
				"source", b.source, "table", table.Name, "missing", missing)
		}
		return nil, summary
	}
	return mapping, summary
}

// cell 读取映射字段的单元格；字段不存在返回空串
func cell(table *model.SourceTable, mapping *parser.Mapping, row int, field string) string {
	idx, ok := mapping.Index(field)
	if !ok {
		return ""
	}
	return table.Cell(row, idx)
}

// date 解析行日期
func (b *base) date(table *model.SourceTable, mapping *parser.Mapping, row int) (time.Time, bool) {
	return b.opts.Dates.Parse(cell(table, mapping, row, parser.FieldDate))
}

// finish 输出表并补全统计
func (b *base) finish(acc *accumulator, summary model.SourceSummary) (*model.DailyTable, model.SourceSummary) {
	t := acc.table(b.source)
	summary.Days = len(t.Rows)
	if summary.RowsDropped > 0 {
		b.opts.Logger.Debug("rows dropped",
			"source", b.source, "dropped", summary.RowsDropped, "read", summary.RowsRead)
	}
	if summary.RowsFiltered > 0 {
		b.opts.Logger.Debug("rows filtered",
			"source", b.source, "filtered", summary.RowsFiltered, "read", summary.RowsRead)
	}
	return t, summary
}
