package v3

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"aerokpi/internal/exporter"
	"aerokpi/internal/model"
	"aerokpi/internal/store"
)

// csvTables 可单独下载的表
var csvTables = map[string]func(io.Writer, *model.Report) error{
	"daily": func(w io.Writer, r *model.Report) error {
		return exporter.WriteDailyCSV(w, r.Daily)
	},
	"weekly": func(w io.Writer, r *model.Report) error {
		return exporter.WriteSummaryCSV(w, r.Weekly)
	},
	"period": func(w io.Writer, r *model.Report) error {
		return exporter.WriteSummaryCSV(w, r.Period)
	},
	"transposed": func(w io.Writer, r *model.Report) error {
		return exporter.WriteTransposedCSV(w, r.Transposed)
	},
}

// ListReports 最近的报表
// GET /api/reports
func (h *Handler) ListReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": h.reports.List()})
}

// GetReport 按运行 ID 获取报表
// GET /api/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	report, ok := h.findReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// DownloadReportCSV 下载单张表的 CSV
// GET /api/reports/:id/csv/:table
func (h *Handler) DownloadReportCSV(c *gin.Context) {
	write, ok := csvTables[c.Param("table")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知的表: " + c.Param("table")})
		return
	}
	report, ok := h.findReport(c)
	if !ok {
		return
	}

	name := fmt.Sprintf("%s_%s.csv", c.Param("table"), report.RunID)
	c.Header("Content-Disposition", buildExportContentDisposition(name))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := write(c.Writer, report); err != nil {
		h.logger.Error("write csv response", "run_id", report.RunID, "error", err)
	}
}

// DeleteReport 删除报表
// DELETE /api/reports/:id
func (h *Handler) DeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "报表不存在"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) findReport(c *gin.Context) (*model.Report, bool) {
	report, err := h.reports.Get(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "报表不存在"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return report, true
}
