package v3

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aerokpi/internal/model"
)

// RunInfo 最近一次运行
type RunInfo struct {
	RunID    string    `json:"runId,omitempty"`
	At       time.Time `json:"at"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	DateFrom string    `json:"dateFrom,omitempty"`
	DateTo   string    `json:"dateTo,omitempty"`
	Days     int       `json:"days"`
	Duration string    `json:"duration,omitempty"`
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	StartedAt        time.Time `json:"startedAt"`
	Uptime           string    `json:"uptime"`
	Runs             int       `json:"runs"`              // 已处理的报表次数
	KeptReports      int       `json:"keptReports"`       // 内存中可查询的报表
	PendingDownloads int       `json:"pendingDownloads"`  // 尚未下载的导出文件
	Sources          []string  `json:"sources"`           // 支持的来源
	LastRun          *RunInfo  `json:"lastRun,omitempty"` // 最近一次运行
}

// recordRun 记录运行结果（供 /status 展示）
func (h *Handler) recordRun(report *model.Report, err error) {
	info := &RunInfo{At: time.Now(), OK: err == nil}
	if err != nil {
		info.Error = err.Error()
	}
	if report != nil {
		info.RunID = report.RunID
		info.DateFrom = report.DateFrom.Format(model.DateLayout)
		info.DateTo = report.DateTo.Format(model.DateLayout)
		if report.Daily != nil {
			info.Days = len(report.Daily.Rows)
		}
		info.Duration = report.Duration.String()
		if err == nil {
			if perr := h.reports.Put(report); perr != nil {
				h.logger.Warn("keep report failed", "run_id", report.RunID, "error", perr)
			}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs++
	h.lastRun = info
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	sources := make([]string, 0, len(model.AllSourceKinds()))
	for _, k := range model.AllSourceKinds() {
		sources = append(sources, string(k))
	}

	h.mu.Lock()
	resp := StatusResponse{
		StartedAt: h.startedAt,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Runs:      h.runs,
		Sources:   sources,
	}
	if h.lastRun != nil {
		last := *h.lastRun
		resp.LastRun = &last
	}
	h.mu.Unlock()
	resp.PendingDownloads = h.downloads.len()
	resp.KeptReports = h.reports.Count()

	c.JSON(http.StatusOK, resp)
}
