package parser

import (
	"strings"

	"aerokpi/internal/model"
)

// schemas 各源的列别名表（别名顺序即匹配优先级）
var schemas = map[model.SourceKind]Schema{
	model.SourceSales: {
		Source: model.SourceSales,
		Hints:  []string{"venta", "sales"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"date", "fecha", "tm_created_local_at", "Fecha Venta"}, Required: true},
			{Name: FieldPrice, Aliases: []string{"qt_price_local", "precio", "monto", "price"}, Required: true, Key: true},
			{Name: FieldProduct, Aliases: []string{"ds_product_name", "producto", "product_name"}, Key: true},
		},
	},
	model.SourcePerformance: {
		Source: model.SourcePerformance,
		Hints:  []string{"performance", "desempe"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Fecha de Referencia", "fecha_referencia", "Reference Date"}, Required: true},
			{Name: FieldGroup, Aliases: []string{"Group Support Service", "Grupo Soporte"}, Required: true, Key: true},
			{Name: FieldStatus, Aliases: []string{"Status", "Estado"}, Key: true},
			{Name: FieldCSAT, Aliases: []string{"CSAT"}, Key: true},
			{Name: FieldNPS, Aliases: []string{"NPS Score", "NPS"}},
			{Name: FieldFIRT, Aliases: []string{"Firt (h)", "FIRT"}, Key: true},
			{Name: FieldFIRTPct, Aliases: []string{"% Firt", "%FIRT"}},
			{Name: FieldFURT, Aliases: []string{"Furt (h)", "FURT"}},
			{Name: FieldFURTPct, Aliases: []string{"% Furt", "%FURT"}},
			{Name: FieldReopen, Aliases: []string{"Reopen", "Reaperturas"}},
		},
	},
	model.SourceAudit: {
		Source: model.SourceAudit,
		Hints:  []string{"auditor", "audit"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Date Time", "Fecha", "Date", "Fecha Auditoría", "Fecha Auditoria", "Timestamp"}, Required: true},
			{Name: FieldScore, Aliases: []string{"Total Audit Score", "Nota", "Score"}, Key: true},
		},
	},
	model.SourceOffTime: {
		Source: model.SourceOffTime,
		Hints:  []string{"off_time", "off time", "offtime", "puntualidad"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"tm_airport_arrival_requested_local_at", "fecha"}, Required: true},
			{Name: FieldSegment, Aliases: []string{"Segment Arrived to Airport vs Requested", "Segmento Llegada"}, Required: true, Key: true},
		},
	},
	model.SourceTrip90: {
		Source: model.SourceTrip90,
		Hints:  []string{"mas_90", "más_90", "mas 90", "más 90", ">90", "90min", "90 min", "90_min"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"tm_start_local_at", "tm_pickup_local_at", "fecha"}, Required: true},
			{Name: FieldDuration, Aliases: []string{"duration_min", "Duración (min)", "Duracion (min)", "duracion_minutos", "duration"}, Required: true, Key: true},
		},
	},
	model.SourceTrip30: {
		Source: model.SourceTrip30,
		Hints:  []string{"mas_30", "más_30", "mas 30", "más 30", ">30", "30min", "30 min", "30_min"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"fecha", "date", "tm_start_local_at"}, Required: true},
		},
	},
	model.SourceInspection: {
		Source: model.SourceInspection,
		Hints:  []string{"inspecc", "inspection", "revision"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Fecha", "Date", "Marca temporal", "Timestamp"}, Required: true},
			{Name: FieldExterior, Aliases: []string{"% Cumplimiento Exterior", "Cumplimiento Exterior", "Exterior"}, Key: true},
			{Name: FieldInterior, Aliases: []string{"% Cumplimiento Interior", "Cumplimiento Interior", "Interior"}, Key: true},
			{Name: FieldDriver, Aliases: []string{"% Cumplimiento Conductor", "Cumplimiento Conductor", "Conductor"}, Key: true},
		},
	},
	model.SourceAbandoned: {
		Source: model.SourceAbandoned,
		Hints:  []string{"abandon"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Fecha", "created_at", "Date"}, Required: true},
		},
	},
	model.SourceRescue: {
		Source: model.SourceRescue,
		Hints:  []string{"rescate", "rescue"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Fecha", "created_at", "Date"}, Required: true},
			{Name: FieldDispatcher, Aliases: []string{"Despachador", "dispatcher_email", "Email Despachador", "Email"}, Key: true},
		},
	},
	model.SourceMessaging: {
		Source: model.SourceMessaging,
		Hints:  []string{"mensaj", "whatsapp", "messaging"},
		Fields: []Field{
			{Name: FieldDate, Aliases: []string{"Created at", "Fecha de creación", "Fecha de creacion", "Fecha", "created_at"}, Required: true},
		},
	},
}

// SchemaFor 返回源的别名表
func SchemaFor(source model.SourceKind) Schema {
	return schemas[source]
}

// FieldMapper 字段映射器：把表头解析为规范字段（入口处解析一次）
type FieldMapper struct {
	schema Schema
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper(schema Schema) *FieldMapper {
	return &FieldMapper{schema: schema}
}

// Mapping 表头解析结果
type Mapping struct {
	fields          map[string]FieldMapping
	Missing         []string // 所有未找到的规范字段
	MissingRequired []string // 未找到的必需字段
}

// Map 解析表头
func (m *FieldMapper) Map(headers []string) *Mapping {
	normalized := NormalizeHeaders(headers)

	result := &Mapping{fields: make(map[string]FieldMapping)}
	used := make(map[int]bool)

	for _, field := range m.schema.Fields {
		mapping, ok := matchField(field, normalized, used)
		if !ok {
			result.Missing = append(result.Missing, field.Name)
			if field.Required {
				result.MissingRequired = append(result.MissingRequired, field.Name)
			}
			continue
		}
		used[mapping.ColumnIndex] = true
		result.fields[field.Name] = mapping
	}

	return result
}

func matchField(field Field, headers []string, used map[int]bool) (FieldMapping, bool) {
	for ai, alias := range field.Aliases {
		alias = NormalizeColumnName(alias)
		for idx, col := range headers {
			if used[idx] || col == "" {
				continue
			}
			if strings.EqualFold(col, alias) {
				return FieldMapping{
					ColumnIndex: idx,
					ColumnName:  col,
					Field:       field.Name,
					ViaAlias:    ai > 0,
				}, true
			}
		}
	}
	return FieldMapping{}, false
}

// Index 返回字段所在列
func (m *Mapping) Index(field string) (int, bool) {
	fm, ok := m.fields[field]
	if !ok {
		return -1, false
	}
	return fm.ColumnIndex, true
}

// Has 字段是否存在
func (m *Mapping) Has(field string) bool {
	_, ok := m.fields[field]
	return ok
}

// Complete 必需字段是否齐全
func (m *Mapping) Complete() bool {
	return len(m.MissingRequired) == 0
}

// Columns 规范字段 -> 实际列名
func (m *Mapping) Columns() map[string]string {
	out := make(map[string]string, len(m.fields))
	for name, fm := range m.fields {
		out[name] = fm.ColumnName
	}
	return out
}
