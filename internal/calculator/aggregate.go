package calculator

import (
	"aerokpi/internal/model"
)

// plan 列聚合方案：每列的口径，比率列的分子分母
type plan struct {
	columns []string
	kinds   map[string]model.AggregationKind
	ratios  map[string]model.KPI
}

// newPlan 按目录决定各列口径
func newPlan(catalog *model.Catalog, columns []string) plan {
	sums, means, pcts := catalog.Split(columns)
	p := explicitPlan(catalog, sums, means, pcts)
	p.columns = append([]string{}, columns...)
	return p
}

// explicitPlan 由调用方指定的求和列、均值列、比率列构造方案
func explicitPlan(catalog *model.Catalog, sums, means, pcts []string) plan {
	p := plan{
		kinds:  make(map[string]model.AggregationKind, len(sums)+len(means)+len(pcts)),
		ratios: make(map[string]model.KPI, len(pcts)),
	}
	for _, c := range sums {
		p.kinds[c] = model.AggSum
		p.columns = append(p.columns, c)
	}
	for _, c := range means {
		p.kinds[c] = model.AggMean
		p.columns = append(p.columns, c)
	}
	for _, c := range pcts {
		p.columns = append(p.columns, c)
		k, ok := catalog.Lookup(c)
		if !ok || k.Kind != model.AggRatio {
			// 无法重算的比率只能取均值
			p.kinds[c] = model.AggMean
			continue
		}
		p.kinds[c] = model.AggRatio
		p.ratios[c] = k
	}
	return p
}

// aggregate 聚合一组日行：求和、忽略空值的均值、按分子分母合计重算比率
func (p plan) aggregate(rows []model.DailyRow) map[string]*float64 {
	out := make(map[string]*float64, len(p.columns))
	for _, col := range p.columns {
		switch p.kinds[col] {
		case model.AggMean:
			out[col] = meanOf(rows, col)
		case model.AggRatio:
			k := p.ratios[col]
			out[col] = percent(sumOf(rows, k.Numerator), sumOf(rows, k.Denominator))
		default:
			out[col] = model.Float(sumOf(rows, col))
		}
	}
	return out
}

func sumOf(rows []model.DailyRow, col string) float64 {
	var total float64
	for _, r := range rows {
		if v := r.Value(col); v != nil {
			total += *v
		}
	}
	return total
}

func meanOf(rows []model.DailyRow, col string) *float64 {
	var total float64
	n := 0
	for _, r := range rows {
		if v := r.Value(col); v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return model.Float(total / float64(n))
}

// percent 100*num/den；分母为 0 时为空
func percent(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	return model.Float(100 * num / den)
}
