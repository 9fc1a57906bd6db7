package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerokpi/internal/model"
)

func TestWeekLabel_EndMonthNaming(t *testing.T) {
	t.Parallel()

	cases := map[time.Time]string{
		date(2025, time.October, 27):  "27-2 Noviembre",
		date(2025, time.October, 31):  "27-2 Noviembre",
		date(2025, time.November, 2):  "27-2 Noviembre",
		date(2025, time.November, 30): "24-30 Noviembre",
		date(2025, time.November, 24): "24-30 Noviembre",
	}
	for d, want := range cases {
		assert.Equal(t, want, WeekLabel(d), d.Format(model.DateLayout))
	}
	assert.Equal(t, "Semana 27 al 2 Noviembre 2025", WeekColumnLabel(date(2025, time.October, 29)))
	assert.Equal(t, "Semana 29 al 4 Enero 2026", WeekColumnLabel(date(2025, time.December, 31)))
	assert.Equal(t, "Mes Octubre 2025", MonthColumnLabel(date(2025, time.October, 29)))
	assert.Equal(t, "29/10/2025", DayColumnLabel(date(2025, time.October, 29)))
	assert.Equal(t, "2024-11-01 → 2024-11-30", PeriodLabel(date(2024, time.November, 1), date(2024, time.November, 30)))
}

func TestWeekStart_MondayToSunday(t *testing.T) {
	t.Parallel()

	monday := date(2025, time.October, 27)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		assert.Equal(t, monday, WeekStart(d))
		assert.Equal(t, date(2025, time.November, 2), WeekEnd(d))
	}
	assert.Equal(t, date(2025, time.November, 3), WeekStart(date(2025, time.November, 3)))
}

func TestWeekly_RatioRecomputedNotAveraged(t *testing.T) {
	t.Parallel()

	daily := NewConsolidator(nil, nil).Consolidate(
		[]*model.DailyTable{salesTable(), offTimeTable()}, time.Time{}, time.Time{})

	// 11/04 5/10 = 50%，11/05 10/1000 = 1%
	assert.InDelta(t, 50.0, *cellOf(t, daily, date(2024, time.November, 4), model.KPIOffTimePct), 1e-9)
	assert.InDelta(t, 1.0, *cellOf(t, daily, date(2024, time.November, 5), model.KPIOffTimePct), 1e-9)

	weekly := Weekly(nil, daily)
	require.Len(t, weekly.Rows, 1)
	got := weekly.Rows[0].Values[model.KPIOffTimePct]
	require.NotNil(t, got)

	want := 100 * 15.0 / 1012.0
	assert.InDelta(t, want, *got, 1e-9)
	assert.NotEqual(t, (50.0+1.0+0.0)/3, *got)
	assert.NotEqual(t, (50.0+1.0)/2, *got)
}

func TestWeekly_GroupsAndAggregates(t *testing.T) {
	t.Parallel()

	daily := table("", []string{model.KPITickets, model.KPICSAT},
		row(date(2025, time.October, 30), map[string]*float64{model.KPITickets: f(2), model.KPICSAT: f(4)}),
		row(date(2025, time.November, 1), map[string]*float64{model.KPITickets: f(3), model.KPICSAT: nil}),
		row(date(2025, time.November, 2), map[string]*float64{model.KPITickets: f(1), model.KPICSAT: f(5)}),
		row(date(2025, time.November, 12), map[string]*float64{model.KPITickets: f(7), model.KPICSAT: nil}),
	)

	weekly := Weekly(nil, daily)
	require.Len(t, weekly.Rows, 2, "empty week of Nov 3 must not be synthesized")

	first := weekly.Rows[0]
	assert.Equal(t, "27-2 Noviembre", first.Label)
	assert.Equal(t, 3, first.Days)
	assert.Equal(t, 6.0, *first.Values[model.KPITickets])
	assert.Equal(t, 4.5, *first.Values[model.KPICSAT])

	second := weekly.Rows[1]
	assert.Equal(t, "10-16 Noviembre", second.Label)
	assert.Equal(t, date(2025, time.November, 10), second.Start)
	assert.Equal(t, date(2025, time.November, 16), second.End)
	assert.Nil(t, second.Values[model.KPICSAT])
	assert.Equal(t, daily.Columns, weekly.Columns)
}

func TestWeekly_SameLabelDifferentYears(t *testing.T) {
	t.Parallel()

	daily := table("", []string{model.KPITickets},
		row(date(2019, time.November, 4), map[string]*float64{model.KPITickets: f(1)}),
		row(date(2024, time.November, 4), map[string]*float64{model.KPITickets: f(2)}),
	)
	weekly := Weekly(nil, daily)
	require.Len(t, weekly.Rows, 2)
	assert.Equal(t, weekly.Rows[0].Label, weekly.Rows[1].Label)
}

func TestPeriod_SingleRow(t *testing.T) {
	t.Parallel()

	from, to := date(2024, time.November, 1), date(2024, time.November, 30)
	daily := NewConsolidator(nil, nil).Consolidate(
		[]*model.DailyTable{salesTable(), supportTable(), offTimeTable()}, from, to)

	period := Period(nil, daily, from, to)
	require.Len(t, period.Rows, 1)

	r := period.Rows[0]
	assert.Equal(t, "2024-11-01 → 2024-11-30", r.Label)
	assert.Equal(t, 4, r.Days)
	assert.Equal(t, 6200.0, *r.Values[model.KPISalesTotal])
	assert.Equal(t, 4.0, *r.Values[model.KPITickets])
	assert.Equal(t, 4.5, *r.Values[model.KPICSAT])
	assert.InDelta(t, 100*15.0/1012.0, *r.Values[model.KPIOffTimePct], 1e-9)
}

func TestPeriod_EmptyDaily(t *testing.T) {
	t.Parallel()

	period := Period(nil, model.NewDailyTable("", nil), date(2024, time.November, 1), date(2024, time.November, 2))
	require.Len(t, period.Rows, 1)
	assert.Equal(t, 0, period.Rows[0].Days)
	assert.Empty(t, period.Rows[0].Values)
	assert.Empty(t, Weekly(nil, model.NewDailyTable("", nil)).Rows)
}
