package model

import (
	"time"
)

// SourceSummary 单个源的规范化情况
type SourceSummary struct {
	Source         SourceKind        `json:"source"`
	Label          string            `json:"label"`
	Provided       bool              `json:"provided"`
	RowsRead       int               `json:"rowsRead"`
	RowsUsed       int               `json:"rowsUsed"`
	RowsFiltered   int               `json:"rowsFiltered"`   // 被业务过滤条件排除（队列、调度员）
	RowsDropped    int               `json:"rowsDropped"`    // 日期无法解析
	Days           int               `json:"days"`
	MissingColumns []string          `json:"missingColumns,omitempty"`
	Aliases        map[string]string `json:"aliases,omitempty"` // 规范名 -> 实际列名
}

// Contributed 该源是否产生了数据
func (s SourceSummary) Contributed() bool {
	return s.Days > 0
}

// Report 一次运行的全部产物
type Report struct {
	RunID      string           `json:"runId"`
	DateFrom   time.Time        `json:"dateFrom"`
	DateTo     time.Time        `json:"dateTo"`
	Daily      *DailyTable      `json:"daily"`
	Weekly     *SummaryTable    `json:"weekly"`
	Period     *SummaryTable    `json:"period"`
	Transposed *TransposedTable `json:"transposed"`
	Sources    []SourceSummary  `json:"sources"`
	Duration   time.Duration    `json:"duration"`
}

// NoData 期间内是否没有任何数据
func (r *Report) NoData() bool {
	return r == nil || r.Daily.Empty()
}
