package model

import (
	"sort"
)

// AggregationKind KPI 的聚合口径
type AggregationKind int

const (
	AggSum   AggregationKind = iota // 可加计数：逐级求和，缺失补 0
	AggMean                         // 均值指标：忽略空值求均值
	AggRatio                        // 派生比率：按汇总后的分子/分母重算
)

func (k AggregationKind) String() string {
	switch k {
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggRatio:
		return "ratio"
	}
	return "unknown"
}

// FillPolicy 合并后缺失值的填充策略
type FillPolicy string

const (
	FillZero FillPolicy = "zero"
	FillNull FillPolicy = "null"
)

// 展示分组（固定顺序）
const (
	SectionSalesAmount = "VENTAS (MONTO)"
	SectionSalesVolume = "VENTAS (VOLUMEN)"
	SectionPerformance = "PERFORMANCE"
	SectionQuality     = "CALIDAD"
	SectionInspection  = "INSPECCIONES"
	SectionOperation   = "OPERACIÓN"
	SectionOther       = "OTROS"
)

// KPI 名称
const (
	KPISalesTotal     = "Ventas_Totales"
	KPISalesShared    = "Ventas_Compartidas"
	KPISalesExclusive = "Ventas_Exclusivas"

	KPISalesCount          = "Q_Ventas_Totales"
	KPISalesSharedCount    = "Q_Ventas_Compartidas"
	KPISalesExclusiveCount = "Q_Ventas_Exclusivas"

	KPITickets          = "Q_Tickets"
	KPITicketsResolved  = "Q_Tickets_Resueltos"
	KPIReopen           = "Q_Reopen"
	KPISurveys          = "Q_Encuestas"
	KPIMessagingTickets = "Q_Tickets_Mensajeria"

	KPICSAT       = "CSAT"
	KPINPS        = "NPS"
	KPIFIRT       = "FIRT"
	KPIFIRTPct    = "%FIRT"
	KPIFURT       = "FURT"
	KPIFURTPct    = "%FURT"
	KPIAudits     = "Q_Auditorias"
	KPIAuditScore = "Nota_Auditorias"

	KPIInspections = "Q_Inspecciones"
	KPIExteriorOK  = "Q_Exterior_OK"
	KPIExteriorNOK = "Q_Exterior_NOK"
	KPIInteriorOK  = "Q_Interior_OK"
	KPIInteriorNOK = "Q_Interior_NOK"
	KPIDriverOK    = "Q_Conductor_OK"
	KPIDriverNOK   = "Q_Conductor_NOK"

	KPIOffTime   = "Q_Reservas_Off_Time"
	KPITrip90    = "Q_Viajes_Mas_90"
	KPITrip30    = "Q_Viajes_Mas_30"
	KPIAbandoned = "Q_Clientes_Abandonados"
	KPIRescues   = "Q_Rescates"

	KPIOffTimePct   = "%Reservas_Off_Time"
	KPITrip90Pct    = "%Viajes_Mas_90"
	KPITrip30Pct    = "%Viajes_Mas_30"
	KPIAbandonedPct = "%Clientes_Abandonados"
	KPIRescuesPct   = "%Rescates"
)

// KPI 指标定义
type KPI struct {
	Name        string          `json:"name"`
	Kind        AggregationKind `json:"kind"`
	Fill        FillPolicy      `json:"fill"`
	Section     string          `json:"section"`
	Numerator   string          `json:"numerator,omitempty"`
	Denominator string          `json:"denominator,omitempty"`
	Currency    bool            `json:"currency,omitempty"`
}

// Catalog KPI 目录：决定聚合口径、填充策略与展示顺序
type Catalog struct {
	kpis  []KPI
	index map[string]int
}

// NewCatalog 由指标列表创建目录（列表顺序即展示顺序）
func NewCatalog(kpis []KPI) *Catalog {
	c := &Catalog{
		kpis:  make([]KPI, len(kpis)),
		index: make(map[string]int, len(kpis)),
	}
	copy(c.kpis, kpis)
	for i, k := range c.kpis {
		c.index[k.Name] = i
	}
	return c
}

func sum(name, section string) KPI {
	return KPI{Name: name, Kind: AggSum, Fill: FillZero, Section: section}
}

func money(name string) KPI {
	return KPI{Name: name, Kind: AggSum, Fill: FillZero, Section: SectionSalesAmount, Currency: true}
}

func mean(name, section string) KPI {
	return KPI{Name: name, Kind: AggMean, Fill: FillNull, Section: section}
}

func ratio(name, numerator string) KPI {
	return KPI{
		Name:        name,
		Kind:        AggRatio,
		Fill:        FillNull,
		Section:     SectionOperation,
		Numerator:   numerator,
		Denominator: KPISalesCount,
	}
}

// DefaultCatalog 默认指标目录
//
// Nota_Auditorias 默认保留空值；部分报表口径要求补 0，可通过 WithFillOverrides 覆盖。
func DefaultCatalog() *Catalog {
	return NewCatalog([]KPI{
		money(KPISalesTotal),
		money(KPISalesShared),
		money(KPISalesExclusive),

		sum(KPISalesCount, SectionSalesVolume),
		sum(KPISalesSharedCount, SectionSalesVolume),
		sum(KPISalesExclusiveCount, SectionSalesVolume),

		sum(KPITickets, SectionPerformance),
		sum(KPITicketsResolved, SectionPerformance),
		sum(KPIReopen, SectionPerformance),
		sum(KPISurveys, SectionPerformance),
		sum(KPIMessagingTickets, SectionPerformance),

		mean(KPICSAT, SectionQuality),
		mean(KPINPS, SectionQuality),
		mean(KPIFIRT, SectionQuality),
		mean(KPIFIRTPct, SectionQuality),
		mean(KPIFURT, SectionQuality),
		mean(KPIFURTPct, SectionQuality),
		sum(KPIAudits, SectionQuality),
		mean(KPIAuditScore, SectionQuality),

		sum(KPIInspections, SectionInspection),
		sum(KPIExteriorOK, SectionInspection),
		sum(KPIExteriorNOK, SectionInspection),
		sum(KPIInteriorOK, SectionInspection),
		sum(KPIInteriorNOK, SectionInspection),
		sum(KPIDriverOK, SectionInspection),
		sum(KPIDriverNOK, SectionInspection),

		sum(KPIOffTime, SectionOperation),
		sum(KPITrip90, SectionOperation),
		sum(KPITrip30, SectionOperation),
		sum(KPIAbandoned, SectionOperation),
		sum(KPIRescues, SectionOperation),
		ratio(KPIOffTimePct, KPIOffTime),
		ratio(KPITrip90Pct, KPITrip90),
		ratio(KPITrip30Pct, KPITrip30),
		ratio(KPIAbandonedPct, KPIAbandoned),
		ratio(KPIRescuesPct, KPIRescues),
	})
}

// WithFillOverrides 返回覆盖了填充策略的新目录；只作用于均值指标
func (c *Catalog) WithFillOverrides(overrides map[string]FillPolicy) *Catalog {
	out := NewCatalog(c.kpis)
	for name, policy := range overrides {
		i, ok := out.index[name]
		if !ok || out.kpis[i].Kind != AggMean {
			continue
		}
		if policy == FillZero || policy == FillNull {
			out.kpis[i].Fill = policy
		}
	}
	return out
}

// KPIs 返回全部指标（副本）
func (c *Catalog) KPIs() []KPI {
	out := make([]KPI, len(c.kpis))
	copy(out, c.kpis)
	return out
}

// Lookup 查找指标定义
func (c *Catalog) Lookup(name string) (KPI, bool) {
	i, ok := c.index[name]
	if !ok {
		return KPI{}, false
	}
	return c.kpis[i], true
}

// Resolve 查找指标定义；未知列按可加计数处理并归入兜底分组
func (c *Catalog) Resolve(name string) KPI {
	if k, ok := c.Lookup(name); ok {
		return k
	}
	return KPI{Name: name, Kind: AggSum, Fill: FillZero, Section: SectionOther}
}

// Ratios 返回所有派生比率
func (c *Catalog) Ratios() []KPI {
	var out []KPI
	for _, k := range c.kpis {
		if k.Kind == AggRatio {
			out = append(out, k)
		}
	}
	return out
}

// Sections 返回固定展示顺序的分组（兜底分组在最后）
func (c *Catalog) Sections() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range c.kpis {
		if !seen[k.Section] {
			seen[k.Section] = true
			out = append(out, k.Section)
		}
	}
	if !seen[SectionOther] {
		out = append(out, SectionOther)
	}
	return out
}

// OrderColumns 按目录顺序排列列；未知列按名称排在最后
func (c *Catalog) OrderColumns(cols []string) []string {
	known := make([]string, 0, len(cols))
	var unknown []string
	for _, col := range cols {
		if _, ok := c.index[col]; ok {
			known = append(known, col)
		} else {
			unknown = append(unknown, col)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return c.index[known[i]] < c.index[known[j]]
	})
	sort.Strings(unknown)
	return append(known, unknown...)
}

// Split 按口径拆分列：求和 / 均值 / 比率
func (c *Catalog) Split(cols []string) (sums, means, ratios []string) {
	for _, col := range cols {
		switch c.Resolve(col).Kind {
		case AggMean:
			means = append(means, col)
		case AggRatio:
			ratios = append(ratios, col)
		default:
			sums = append(sums, col)
		}
	}
	return sums, means, ratios
}
