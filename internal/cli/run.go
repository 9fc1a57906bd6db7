package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"aerokpi/internal/exporter"
	"aerokpi/internal/importer"
	"aerokpi/internal/metrics"
	"aerokpi/internal/model"
)

type runFlags struct {
	sources map[model.SourceKind]*[]string
	auto    []string
	from    string
	to      string
	out     string
	csvDir  string
	quiet   bool
}

// sourceFlag 来源类型对应的命令行参数名：off_time -> off-time
func sourceFlag(k model.SourceKind) string {
	return strings.ReplaceAll(string(k), "_", "-")
}

func (app *App) runCommand() *cobra.Command {
	flags := &runFlags{sources: make(map[model.SourceKind]*[]string)}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the report from local files and write the workbook",
		Example: "  aerokpi run --sales ventas.xlsx --performance performance.csv \\\n" +
			"    --from 2024-11-01 --to 2024-11-30 --out reporte.xlsx --csv ./csv",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.run(cmd, flags)
		},
	}

	for _, k := range model.AllSourceKinds() {
		files := &[]string{}
		flags.sources[k] = files
		cmd.Flags().StringSliceVar(files, sourceFlag(k), nil, fmt.Sprintf("%s export file(s)", k.Label()))
	}
	cmd.Flags().StringSliceVar(&flags.auto, "file", nil, "Source file(s) recognized by their headers")
	cmd.Flags().StringVar(&flags.from, "from", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Last day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Output workbook path (.xlsx)")
	cmd.Flags().StringVar(&flags.csvDir, "csv", "", "Also write each table as CSV into this directory")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Do not print the period summary")
	return cmd
}

// request 由参数构建运行请求
func (f *runFlags) request() (importer.Request, error) {
	var req importer.Request

	parse := func(name, value string) (time.Time, error) {
		if value == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(model.DateLayout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", name, value)
		}
		return t, nil
	}
	var err error
	if req.From, err = parse("from", f.from); err != nil {
		return req, err
	}
	if req.To, err = parse("to", f.to); err != nil {
		return req, err
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return req, fmt.Errorf("--to %s is before --from %s", f.to, f.from)
	}

	for _, k := range model.AllSourceKinds() {
		for _, path := range *f.sources[k] {
			req.Inputs = append(req.Inputs, importer.Input{Source: k, Name: filepath.Base(path), Path: path})
		}
	}
	for _, path := range f.auto {
		req.Inputs = append(req.Inputs, importer.Input{Name: filepath.Base(path), Path: path})
	}
	if len(req.Inputs) == 0 {
		return req, fmt.Errorf("no input files: pass at least one of --%s ... or --file", sourceFlag(model.SourceSales))
	}
	return req, nil
}

func (app *App) run(cmd *cobra.Command, flags *runFlags) error {
	req, err := flags.request()
	if err != nil {
		return err
	}

	opts, err := importer.OptionsFromConfig(app.cfg.Report, app.logger, metrics.New())
	if err != nil {
		return err
	}
	coordinator := importer.NewCoordinator(opts)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	report, err := coordinator.Run(ctx, req)
	if err != nil {
		return err
	}

	if flags.out != "" {
		if err := exporter.NewExporter(opts.Catalog).WriteFile(report, flags.out, nil); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprint(out, pterm.Success.Sprintfln("Libro escrito: %s", flags.out))
	}
	if flags.csvDir != "" {
		files, err := exporter.WriteCSVDir(flags.csvDir, report)
		if err != nil {
			return err
		}
		fmt.Fprint(out, pterm.Success.Sprintfln("CSV escritos: %s", strings.Join(files, ", ")))
	}

	if flags.quiet {
		return nil
	}
	return printSummary(out, opts.Catalog, report)
}
