package parser

import (
	"aerokpi/internal/model"
)

// 规范字段名（各源 schema 共用）
const (
	FieldDate       = "date"
	FieldPrice      = "price"
	FieldProduct    = "product"
	FieldGroup      = "group"
	FieldStatus     = "status"
	FieldCSAT       = "csat"
	FieldNPS        = "nps"
	FieldFIRT       = "firt"
	FieldFIRTPct    = "firt_pct"
	FieldFURT       = "furt"
	FieldFURTPct    = "furt_pct"
	FieldReopen     = "reopen"
	FieldScore      = "score"
	FieldSegment    = "segment"
	FieldDuration   = "duration"
	FieldExterior   = "exterior"
	FieldInterior   = "interior"
	FieldDriver     = "driver"
	FieldDispatcher = "dispatcher"
)

// Field schema 中的一个字段：规范名 + 历史别名
type Field struct {
	Name     string
	Aliases  []string
	Required bool // 缺失时该源整体无法规范化
	Key      bool // 用于源类型识别的特征字段
}

// Schema 单个源的列别名表
type Schema struct {
	Source model.SourceKind
	Fields []Field
	Hints  []string // 文件名关键词（小写）
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // 表格列索引
	ColumnName  string `json:"columnName"`  // 实际列名（已规范化）
	Field       string `json:"field"`       // 规范字段名
	ViaAlias    bool   `json:"viaAlias"`    // 通过非首选别名匹配
}

// RecognitionResult 源类型识别结果
type RecognitionResult struct {
	Name       string           `json:"name"`
	Source     model.SourceKind `json:"source"`
	Confidence float64          `json:"confidence"` // 置信度 0-1
}
