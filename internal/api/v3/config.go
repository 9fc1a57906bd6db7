package v3

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aerokpi/internal/model"
)

// ConfigResponse 生效的报表口径
type ConfigResponse struct {
	SupportGroup     string            `json:"supportGroup"`
	ResolvedMode     string            `json:"resolvedMode"`
	OnTimeToken      string            `json:"onTimeToken"`
	RescueDispatcher string            `json:"rescueDispatcher,omitempty"`
	LongTripMinutes  float64           `json:"longTripMinutes"`
	FillOverrides    map[string]string `json:"fillOverrides"`
	DateFormats      []string          `json:"dateFormats,omitempty"`
	Parallel         bool              `json:"parallel"`
	MaxUploadMB      int               `json:"maxUploadMB"`
	ExportTTLMinutes int               `json:"exportTTLMinutes"`

	// 指标目录（展示顺序）
	KPIs     []model.KPI `json:"kpis"`
	Sections []string    `json:"sections"`
}

// GetConfig 获取当前配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	report := h.cfg.Report
	catalog := h.catalog

	overrides := report.FillOverrides
	if overrides == nil {
		overrides = map[string]string{}
	}

	c.JSON(http.StatusOK, ConfigResponse{
		SupportGroup:     report.SupportGroup,
		ResolvedMode:     report.ResolvedMode,
		OnTimeToken:      report.OnTimeToken,
		RescueDispatcher: report.RescueDispatcher,
		LongTripMinutes:  report.LongTripMinutes,
		FillOverrides:    overrides,
		DateFormats:      report.DateFormats,
		Parallel:         report.Parallel,
		MaxUploadMB:      h.cfg.Data.MaxUploadMB,
		ExportTTLMinutes: h.cfg.Data.ExportTTLMinutes,
		KPIs:             catalog.KPIs(),
		Sections:         catalog.Sections(),
	})
}
