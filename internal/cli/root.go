// Package cli 命令行入口：serve 启动 HTTP 服务，run 批量生成报表
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"aerokpi/internal/config"
	"aerokpi/internal/logging"
)

// Version 版本号（构建时通过 -ldflags 注入）
var Version = "dev"

// App 命令行应用
type App struct {
	root *cobra.Command

	configPath string
	logLevel   string

	cfg     *config.AppConfig
	info    config.LoadConfigInfo
	logger  *slog.Logger
	closeLg io.Closer
}

// NewApp 创建命令行应用
func NewApp() *App {
	app := &App{}

	root := &cobra.Command{
		Use:           "aerokpi",
		Short:         "Consolida los reportes operativos de traslados al aeropuerto en KPIs diarios, semanales y del periodo",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.closeLg != nil {
				_ = app.closeLg.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to a TOML, YAML or JSON config file (default: config.toml next to the binary)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Override log level: debug, info, warn, error")

	root.AddCommand(app.serveCommand(), app.runCommand())
	app.root = root
	return app
}

// Execute 执行命令
func (app *App) Execute() error {
	return app.root.Execute()
}

// SetArgs 设置参数（用于测试）
func (app *App) SetArgs(args []string) {
	app.root.SetArgs(args)
}

// SetOutput 设置输出（用于测试）
func (app *App) SetOutput(w io.Writer) {
	app.root.SetOut(w)
	app.root.SetErr(w)
}

// setup 加载配置并初始化日志
func (app *App) setup() error {
	cfg, info, err := config.LoadConfigWithInfo(app.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if app.logLevel != "" {
		cfg.Logging.Level = app.logLevel
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	slog.SetDefault(logger)

	app.cfg, app.info, app.logger, app.closeLg = cfg, info, logger, closer
	if info.Path != "" {
		logger.Debug("config loaded", "path", info.Path)
	}
	return nil
}
