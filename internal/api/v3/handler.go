package v3

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"aerokpi/internal/config"
	"aerokpi/internal/exporter"
	"aerokpi/internal/importer"
	"aerokpi/internal/logging"
	"aerokpi/internal/metrics"
	"aerokpi/internal/model"
	"aerokpi/internal/store"
)

// Handler V3 API 处理器
type Handler struct {
	cfg         *config.AppConfig
	logger      *slog.Logger
	coordinator *importer.Coordinator
	catalog     *model.Catalog
	exporter    *exporter.Exporter
	validate    *validator.Validate
	downloads   *exportDownloadStore
	reports     *store.MemoryStore
	exportDir   string
	startedAt   time.Time

	mu      sync.Mutex
	runs    int
	lastRun *RunInfo
}

// Options 处理器依赖
type Options struct {
	Config    *config.AppConfig
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	ExportDir string // 导出文件目录，为空时使用系统临时目录
}

// NewHandler 创建 V3 API 处理器
func NewHandler(opts Options) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	coordOpts, err := importer.OptionsFromConfig(cfg.Report, logger, opts.Metrics)
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.Data.ExportTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Handler{
		cfg:         cfg,
		logger:      logger,
		coordinator: importer.NewCoordinator(coordOpts),
		catalog:     coordOpts.Catalog,
		exporter:    exporter.NewExporter(coordOpts.Catalog),
		validate:    newValidator(),
		downloads:   newExportDownloadStore(ttl),
		reports:     store.NewMemoryStore(cfg.Data.KeepReports),
		exportDir:   opts.ExportDir,
		startedAt:   time.Now(),
	}, nil
}

// RegisterRoutes 注册 V3 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 生效的报表口径
	router.GET("/config", h.GetConfig)

	// 报表运行
	router.POST("/report", h.Report)
	router.POST("/report/stream", h.ReportStream)

	// 最近的报表
	router.GET("/reports", h.ListReports)
	router.GET("/reports/:id", h.GetReport)
	router.GET("/reports/:id/csv/:table", h.DownloadReportCSV)
	router.DELETE("/reports/:id", h.DeleteReport)

	// 导出下载
	router.GET("/export/download/:token", h.DownloadExport)
}
