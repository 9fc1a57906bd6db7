package v3

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"aerokpi/internal/importer"
	"aerokpi/internal/model"
)

// autoField 未指定来源的上传字段，按表头识别
const autoField = "files"

// ReportForm 报表请求参数（multipart 表单）
type ReportForm struct {
	DateFrom string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Format   string `form:"format" validate:"omitempty,oneof=json xlsx"`
}

// Range 解析后的日期区间；未给出的一端为零值
func (f ReportForm) Range() (from, to time.Time) {
	if f.DateFrom != "" {
		from, _ = time.Parse(model.DateLayout, f.DateFrom)
	}
	if f.DateTo != "" {
		to, _ = time.Parse(model.DateLayout, f.DateTo)
	}
	return from, to
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		form := sl.Current().Interface().(ReportForm)
		from, to := form.Range()
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			sl.ReportError(form.DateTo, "DateTo", "date_to", "gtefield", "DateFrom")
		}
	}, ReportForm{})
	return v
}

// validationMessage 把校验错误转成可读消息
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("%s 日期格式应为 YYYY-MM-DD", fe.Field())
	case "gtefield":
		return "date_to 不能早于 date_from"
	case "oneof":
		return fmt.Sprintf("%s 只能是 %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s 无效", fe.Field())
}

// reportRequest 解析后的请求
type reportRequest struct {
	form    ReportForm
	request importer.Request
	files   []multipart.File
}

func (r *reportRequest) Close() {
	for _, f := range r.files {
		_ = f.Close()
	}
}

// bindReport 解析表单与上传文件；返回的 error 已是面向用户的消息
func (h *Handler) bindReport(c *gin.Context) (*reportRequest, int, error) {
	if h.cfg.Data.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.cfg.Data.MaxUploadMB)<<20)
	}

	var form ReportForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("无效的表单数据")
	}
	if err := h.validate.Struct(form); err != nil {
		return nil, http.StatusBadRequest, errors.New(validationMessage(err))
	}

	mf, err := c.MultipartForm()
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("无效的表单数据")
	}

	fields := make([]string, 0, len(mf.File))
	for field := range mf.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := &reportRequest{form: form}
	from, to := form.Range()
	out.request.From, out.request.To = from, to

	for _, field := range fields {
		var source model.SourceKind
		if field != autoField {
			kind, ok := model.ParseSourceKind(field)
			if !ok {
				out.Close()
				return nil, http.StatusBadRequest, fmt.Errorf("未知的来源字段: %s", field)
			}
			source = kind
		}
		for _, fh := range mf.File[field] {
			f, err := fh.Open()
			if err != nil {
				out.Close()
				return nil, http.StatusBadRequest, fmt.Errorf("读取上传文件失败: %s", fh.Filename)
			}
			out.files = append(out.files, f)
			out.request.Inputs = append(out.request.Inputs, importer.Input{
				Source: source,
				Name:   fh.Filename,
				Data:   f,
			})
		}
	}

	if len(out.request.Inputs) == 0 {
		out.Close()
		return nil, http.StatusBadRequest, fmt.Errorf("未找到上传文件")
	}
	return out, http.StatusOK, nil
}

// statusForRunError 运行错误对应的 HTTP 状态码
func statusForRunError(err error) int {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrUnknownSource), errors.Is(err, importer.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Report 同步生成报表
// POST /api/report
func (h *Handler) Report(c *gin.Context) {
	req, status, err := h.bindReport(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	defer req.Close()

	report, err := h.coordinator.Run(c.Request.Context(), req.request)
	h.recordRun(report, err)
	if err != nil {
		h.logger.Warn("report request failed", "error", err)
		c.JSON(statusForRunError(err), gin.H{"error": "生成报表失败: " + err.Error()})
		return
	}

	if req.form.Format == "xlsx" {
		h.writeWorkbook(c, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// writeWorkbook 直接返回 Excel
func (h *Handler) writeWorkbook(c *gin.Context, report *model.Report) {
	file, err := h.exporter.Export(report, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(exportFileName(report)))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if _, err := file.WriteTo(c.Writer); err != nil {
		h.logger.Error("write workbook response", "error", err)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportFileName 导出文件名：reporte_<from>_<to>.xlsx
func exportFileName(report *model.Report) string {
	return fmt.Sprintf("reporte_%s_%s.xlsx",
		report.DateFrom.Format(model.DateLayout), report.DateTo.Format(model.DateLayout))
}

func buildExportContentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=%q", fileName)
}
