package calculator

import (
	"fmt"
	"time"

	"aerokpi/internal/model"
)

var monthNames = [...]string{
	"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName 西语月份名
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m]
}

// WeekStart 所在周的周一
func WeekStart(d time.Time) time.Time {
	d = model.Day(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd 所在周的周日
func WeekEnd(d time.Time) time.Time {
	return WeekStart(d).AddDate(0, 0, 6)
}

// WeekLabel 周标签，月份取周日所在月："27-2 Noviembre"
func WeekLabel(d time.Time) string {
	start, end := WeekStart(d), WeekEnd(d)
	return fmt.Sprintf("%d-%d %s", start.Day(), end.Day(), MonthName(end.Month()))
}

// WeekColumnLabel 转置表周汇总列："Semana 27 al 2 Noviembre 2024"
func WeekColumnLabel(d time.Time) string {
	start, end := WeekStart(d), WeekEnd(d)
	return fmt.Sprintf("Semana %d al %d %s %d", start.Day(), end.Day(), MonthName(end.Month()), end.Year())
}

// MonthColumnLabel 转置表月汇总列："Mes Noviembre 2024"
func MonthColumnLabel(d time.Time) string {
	return fmt.Sprintf("Mes %s %d", MonthName(d.Month()), d.Year())
}

// DayColumnLabel 转置表日期列：DD/MM/YYYY
func DayColumnLabel(d time.Time) string {
	return d.Format("02/01/2006")
}

// PeriodLabel 期间标签："2024-11-01 → 2024-11-30"
func PeriodLabel(from, to time.Time) string {
	return from.Format(model.DateLayout) + " → " + to.Format(model.DateLayout)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
