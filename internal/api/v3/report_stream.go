package v3

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"aerokpi/internal/exporter"
	"aerokpi/internal/importer"
	"aerokpi/internal/model"
)

// 导出阶段的事件类型
const (
	eventExportProgress = "export_progress"
)

// ReportStream 生成报表（SSE 进度 + 完成后提供下载地址）
// POST /api/report/stream
func (h *Handler) ReportStream(c *gin.Context) {
	req, status, err := h.bindReport(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	defer req.Close()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event importer.ProgressEvent) {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	var report *model.Report
	for event := range h.coordinator.Start(c.Request.Context(), req.request) {
		switch event.Type {
		case importer.EventDone:
			report, _ = event.Data.(*model.Report)
			continue
		case importer.EventError:
			h.recordRun(nil, fmt.Errorf("%s", event.Message))
		}
		send(event)
	}
	if report == nil {
		return
	}
	h.recordRun(report, nil)

	lastPercent := -1
	path, err := h.saveWorkbook(report, func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(importer.ProgressEvent{
			Type:    eventExportProgress,
			Message: p.Stage,
			Data:    map[string]any{"percent": p.Percent},
		})
	})
	if err != nil {
		h.logger.Error("export workbook failed", "run_id", report.RunID, "error", err)
		send(importer.ProgressEvent{
			Type:    importer.EventError,
			Message: "导出失败: " + err.Error(),
			Data:    map[string]any{},
		})
		return
	}

	token := h.downloads.put(path, exportFileName(report), report.RunID)

	send(importer.ProgressEvent{
		Type:    importer.EventDone,
		Message: fmt.Sprintf("报表完成：%d 天", len(report.Daily.Rows)),
		Data: map[string]any{
			"percent":     100,
			"runId":       report.RunID,
			"downloadUrl": fmt.Sprintf("/api/export/download/%s", token),
			"report":      report,
		},
	})
}

// saveWorkbook 把报表写入导出目录
func (h *Handler) saveWorkbook(report *model.Report, progress func(exporter.ProgressEvent)) (string, error) {
	dir := h.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("aerokpi_export_%s.xlsx", report.RunID))
	if err := h.exporter.WriteFile(report, path, progress); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.fileName))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}
