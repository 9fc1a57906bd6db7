package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"aerokpi/internal/metrics"
	"aerokpi/internal/server"
)

type serveFlags struct {
	port    int
	devMode bool
	dataDir string
}

func (app *App) serveCommand() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (upload sources, stream progress, download the workbook)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.serve(cmd.Context(), flags)
		},
	}
	cmd.Flags().IntVar(&flags.port, "port", 0, "服务端口 (config 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&flags.devMode, "dev", false, "开发模式")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	return cmd
}

func (app *App) serve(ctx context.Context, flags *serveFlags) error {
	cfg := app.cfg

	// 命令行参数覆盖配置
	if flags.port > 0 && !app.info.PortSpecified {
		cfg.Server.Port = flags.port
	}
	if flags.devMode {
		cfg.Server.DevMode = true
	}
	if flags.dataDir != "" {
		cfg.Data.DataDir = flags.dataDir
	}

	srv, err := server.NewServer(cfg, app.logger, metrics.New())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := apiBaseURL(cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(addr)
	}()

	pterm.Info.Printfln("aerokpi %s escuchando en %s", Version, url)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// apiBaseURL 启动后打印的 API 入口
func apiBaseURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/api", port)
}
