package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"aerokpi/internal/model"
	"aerokpi/internal/util"
)

// printSummary 打印来源情况与期间汇总
func printSummary(w io.Writer, catalog *model.Catalog, report *model.Report) error {
	sources := pterm.TableData{{"Fuente", "Filas", "Usadas", "Filtradas", "Descartadas", "Días"}}
	for _, s := range report.Sources {
		if !s.Provided {
			continue
		}
		sources = append(sources, []string{
			s.Label,
			strconv.Itoa(s.RowsRead),
			strconv.Itoa(s.RowsUsed),
			strconv.Itoa(s.RowsFiltered),
			strconv.Itoa(s.RowsDropped),
			strconv.Itoa(s.Days),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(sources).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)

	if report.NoData() {
		fmt.Fprint(w, pterm.Warning.Sprintfln("Sin datos entre %s y %s",
			report.DateFrom.Format(model.DateLayout), report.DateTo.Format(model.DateLayout)))
		return nil
	}

	period := report.Period.Rows[0]
	fmt.Fprint(w, pterm.Info.Sprintfln("Periodo %s (%d días)", period.Label, period.Days))

	data := pterm.TableData{{"KPI", "Valor"}}
	for _, col := range report.Period.Columns {
		data = append(data, []string{col, util.FormatKPI(catalog.Resolve(col), period.Values[col])})
	}
	table, err = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, table)
	return nil
}
