package model

import (
	"time"
)

// DateLayout 日期列的统一格式
const DateLayout = "2006-01-02"

// Float 构造可空数值
func Float(v float64) *float64 {
	return &v
}

// Day 截断到自然日（UTC 零点）
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyRow 日粒度的一行：日期 + KPI 值（nil 表示无数据）
type DailyRow struct {
	Date   time.Time           `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// Value 取 KPI 值
func (r DailyRow) Value(col string) *float64 {
	if r.Values == nil {
		return nil
	}
	return r.Values[col]
}

// DailyTable 日粒度表（单源规范化结果，或合并后的总表）
type DailyTable struct {
	Source  SourceKind `json:"source,omitempty"`
	Columns []string   `json:"columns"`
	Rows    []DailyRow `json:"rows"`
}

// NewDailyTable 创建带列定义的空表
func NewDailyTable(source SourceKind, columns []string) *DailyTable {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &DailyTable{
		Source:  source,
		Columns: cols,
		Rows:    []DailyRow{},
	}
}

// Empty 是否没有数据行
func (t *DailyTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// HasColumn 是否包含指定列
func (t *DailyTable) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Dates 返回所有日期（按行顺序）
func (t *DailyTable) Dates() []time.Time {
	if t == nil {
		return nil
	}
	out := make([]time.Time, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r.Date)
	}
	return out
}

// SummaryRow 汇总行（周 / 期间）
type SummaryRow struct {
	Label  string              `json:"label"`
	Start  time.Time           `json:"start"`
	End    time.Time           `json:"end"`
	Days   int                 `json:"days"`
	Values map[string]*float64 `json:"values"`
}

// SummaryTable 汇总表：与日表同列，每行一个周或整个期间
type SummaryTable struct {
	Columns []string     `json:"columns"`
	Rows    []SummaryRow `json:"rows"`
}

// TransposedColumnKind 转置表的列类型
type TransposedColumnKind string

const (
	ColumnDay   TransposedColumnKind = "day"
	ColumnWeek  TransposedColumnKind = "week"
	ColumnMonth TransposedColumnKind = "month"
)

// TransposedColumn 转置表的列（日期列或周 / 月汇总列）
type TransposedColumn struct {
	Label string               `json:"label"`
	Kind  TransposedColumnKind `json:"kind"`
	From  time.Time            `json:"from"`
	To    time.Time            `json:"to"`
}

// TransposedRow 转置表的行；分组标题行 Header=true 且没有值
type TransposedRow struct {
	Label   string     `json:"label"`
	Section string     `json:"section"`
	Header  bool       `json:"header"`
	Values  []*float64 `json:"values,omitempty"`
}

// TransposedTable KPI × 日期 矩阵
type TransposedTable struct {
	Columns []TransposedColumn `json:"columns"`
	Rows    []TransposedRow    `json:"rows"`
}

// KPILabels 返回所有非标题行的 KPI 名
func (t *TransposedTable) KPILabels() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, r := range t.Rows {
		if !r.Header {
			out = append(out, r.Label)
		}
	}
	return out
}
