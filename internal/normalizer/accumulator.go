package normalizer

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"aerokpi/internal/model"
)

// dayBucket 单日累加器
type dayBucket struct {
	sums   map[string]decimal.Decimal
	means  map[string]float64
	counts map[string]int
}

// accumulator 按日分组聚合：计数列求和，均值列对非空观测求均值
type accumulator struct {
	columns []string
	means   map[string]bool
	days    map[time.Time]*dayBucket
}

func newAccumulator(columns []string, meanColumns ...string) *accumulator {
	a := &accumulator{
		columns: columns,
		means:   make(map[string]bool, len(meanColumns)),
		days:    make(map[time.Time]*dayBucket),
	}
	for _, c := range meanColumns {
		a.means[c] = true
	}
	return a
}

// touch 登记日期（该日至少有一行有效数据）
func (a *accumulator) touch(day time.Time) *dayBucket {
	b, ok := a.days[day]
	if !ok {
		b = &dayBucket{
			sums:   make(map[string]decimal.Decimal),
			means:  make(map[string]float64),
			counts: make(map[string]int),
		}
		a.days[day] = b
	}
	return b
}

// add 计数列累加
func (a *accumulator) add(day time.Time, col string, v decimal.Decimal) {
	b := a.touch(day)
	b.sums[col] = b.sums[col].Add(v)
}

// inc 计数列加一
func (a *accumulator) inc(day time.Time, col string) {
	a.add(day, col, decimal.NewFromInt(1))
}

// observe 均值列记录一次观测；nil 不计入
func (a *accumulator) observe(day time.Time, col string, v *float64) {
	b := a.touch(day)
	if v == nil {
		return
	}
	b.means[col] += *v
	b.counts[col]++
}

// table 输出按日期升序的日表
func (a *accumulator) table(source model.SourceKind) *model.DailyTable {
	t := model.NewDailyTable(source, a.columns)

	dates := make([]time.Time, 0, len(a.days))
	for d := range a.days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, d := range dates {
		b := a.days[d]
		values := make(map[string]*float64, len(a.columns))
		for _, col := range a.columns {
			if a.means[col] {
				if n := b.counts[col]; n > 0 {
					values[col] = model.Float(b.means[col] / float64(n))
				} else {
					values[col] = nil
				}
				continue
			}
			f, _ := b.sums[col].Float64()
			values[col] = model.Float(f)
		}
		t.Rows = append(t.Rows, model.DailyRow{Date: d, Values: values})
	}
	return t
}
