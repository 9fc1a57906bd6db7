package model

// SourceKind 源报表类型
type SourceKind string

const (
	SourceSales       SourceKind = "sales"       // 销售（Ventas）
	SourcePerformance SourceKind = "performance" // 客服绩效（Performance）
	SourceAudit       SourceKind = "audit"       // 质检（Auditorías）
	SourceOffTime     SourceKind = "off_time"    // 到达准点（Reservas Off Time）
	SourceTrip90      SourceKind = "trip_90"     // 行程超 90 分钟
	SourceTrip30      SourceKind = "trip_30"     // 行程超 30 分钟（上游已过滤）
	SourceInspection  SourceKind = "inspection"  // 车辆巡检
	SourceAbandoned   SourceKind = "abandoned"   // 放弃客户
	SourceRescue      SourceKind = "rescue"      // 救援调度
	SourceMessaging   SourceKind = "messaging"   // 消息渠道工单
)

// AllSourceKinds 所有源类型（固定顺序，也是合并顺序）
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceSales,
		SourcePerformance,
		SourceAudit,
		SourceOffTime,
		SourceTrip90,
		SourceTrip30,
		SourceInspection,
		SourceAbandoned,
		SourceRescue,
		SourceMessaging,
	}
}

// Label 源类型的展示名
func (k SourceKind) Label() string {
	switch k {
	case SourceSales:
		return "Ventas"
	case SourcePerformance:
		return "Performance"
	case SourceAudit:
		return "Auditorías"
	case SourceOffTime:
		return "Reservas Off Time"
	case SourceTrip90:
		return "Viajes > 90 min"
	case SourceTrip30:
		return "Viajes > 30 min"
	case SourceInspection:
		return "Inspecciones"
	case SourceAbandoned:
		return "Clientes Abandonados"
	case SourceRescue:
		return "Rescates"
	case SourceMessaging:
		return "Tickets Mensajería"
	}
	return string(k)
}

// ParseSourceKind 解析源类型名
func ParseSourceKind(s string) (SourceKind, bool) {
	for _, k := range AllSourceKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// SourceTable 预处理后的原始表格（表头 + 数据行，全部为字符串）
type SourceTable struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Cell 取第 row 行第 col 列，越界返回空串
func (t *SourceTable) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Empty 是否没有数据行
func (t *SourceTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
