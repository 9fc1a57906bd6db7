package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerokpi/internal/model"
)

func transposeFixture() *model.DailyTable {
	return table("", []string{model.KPISalesTotal, model.KPISalesCount, model.KPICSAT, model.KPIOffTime, model.KPIOffTimePct, "Extra"},
		row(date(2025, time.October, 30), map[string]*float64{
			model.KPISalesTotal: f(100), model.KPISalesCount: f(10), model.KPICSAT: f(4),
			model.KPIOffTime: f(1), model.KPIOffTimePct: f(10), "Extra": f(1),
		}),
		row(date(2025, time.October, 31), map[string]*float64{
			model.KPISalesTotal: f(200), model.KPISalesCount: f(90), model.KPICSAT: nil,
			model.KPIOffTime: f(9), model.KPIOffTimePct: f(10), "Extra": f(1),
		}),
		row(date(2025, time.November, 1), map[string]*float64{
			model.KPISalesTotal: f(300), model.KPISalesCount: f(100), model.KPICSAT: f(5),
			model.KPIOffTime: f(0), model.KPIOffTimePct: f(0), "Extra": f(1),
		}),
		row(date(2025, time.November, 3), map[string]*float64{
			model.KPISalesTotal: f(400), model.KPISalesCount: f(0), model.KPICSAT: nil,
			model.KPIOffTime: f(0), model.KPIOffTimePct: nil, "Extra": f(1),
		}),
	)
}

func TestTranspose_ColumnLayout(t *testing.T) {
	t.Parallel()

	out := NewTransposer(nil).Transpose(transposeFixture())

	labels := make([]string, 0, len(out.Columns))
	for _, c := range out.Columns {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{
		"30/10/2025",
		"31/10/2025",
		"Mes Octubre 2025",
		"01/11/2025",
		"Semana 27 al 2 Noviembre 2025",
		"03/11/2025",
		"Semana 3 al 9 Noviembre 2025",
		"Mes Noviembre 2025",
	}, labels)

	assert.Equal(t, model.ColumnMonth, out.Columns[2].Kind)
	assert.Equal(t, date(2025, time.October, 1), out.Columns[2].From)
	assert.Equal(t, date(2025, time.October, 31), out.Columns[2].To)
	assert.Equal(t, model.ColumnWeek, out.Columns[4].Kind)
	assert.Equal(t, date(2025, time.October, 27), out.Columns[4].From)
	assert.Equal(t, date(2025, time.November, 3), out.Columns[7].To)
}

func TestTranspose_SummaryValues(t *testing.T) {
	t.Parallel()

	out := NewTransposer(nil).Transpose(transposeFixture())
	rows := map[string]model.TransposedRow{}
	for _, r := range out.Rows {
		if !r.Header {
			rows[r.Label] = r
		}
	}

	sales := rows[model.KPISalesTotal].Values
	require.Len(t, sales, 8)
	assert.Equal(t, 300.0, *sales[2]) // Mes Octubre
	assert.Equal(t, 600.0, *sales[4]) // Semana 27 al 2
	assert.Equal(t, 400.0, *sales[6]) // Semana 3 al 9
	assert.Equal(t, 700.0, *sales[7]) // Mes Noviembre

	csat := rows[model.KPICSAT].Values
	assert.Equal(t, 4.0, *csat[2])
	assert.Equal(t, 4.5, *csat[4])
	assert.Nil(t, csat[6])
	assert.Equal(t, 5.0, *csat[7])

	pct := rows[model.KPIOffTimePct].Values
	assert.Equal(t, 10.0, *pct[0])
	assert.InDelta(t, 100*10.0/100.0, *pct[2], 1e-9)
	assert.InDelta(t, 100*10.0/200.0, *pct[4], 1e-9)
	assert.Nil(t, pct[5])
	assert.Nil(t, pct[6])
	assert.InDelta(t, 0.0, *pct[7], 1e-9)
}

func TestTranspose_SectionsAndCompleteness(t *testing.T) {
	t.Parallel()

	daily := transposeFixture()
	out := NewTransposer(nil).Transpose(daily)

	var headers []string
	for _, r := range out.Rows {
		if r.Header {
			headers = append(headers, r.Label)
			assert.Empty(t, r.Values)
		}
	}
	assert.Equal(t, []string{
		"=== VENTAS (MONTO) ===",
		"=== VENTAS (VOLUMEN) ===",
		"=== CALIDAD ===",
		"=== OPERACIÓN ===",
		"=== OTROS ===",
	}, headers)

	assert.ElementsMatch(t, daily.Columns, out.KPILabels())
	assert.Equal(t, "Extra", out.Rows[len(out.Rows)-1].Label)
	assert.Equal(t, model.SectionOther, out.Rows[len(out.Rows)-1].Section)
}

func TestTransposeColumns_ExplicitKinds(t *testing.T) {
	t.Parallel()

	out := NewTransposer(nil).TransposeColumns(transposeFixture(),
		[]string{model.KPISalesTotal}, []string{model.KPICSAT}, []string{model.KPIOffTimePct})
	assert.Equal(t, []string{model.KPISalesTotal, model.KPICSAT, model.KPIOffTimePct}, out.KPILabels())
}

func TestTranspose_Empty(t *testing.T) {
	t.Parallel()

	out := NewTransposer(nil).Transpose(model.NewDailyTable("", nil))
	assert.Empty(t, out.Columns)
	assert.Empty(t, out.Rows)
}
