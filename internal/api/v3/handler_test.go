package v3

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aerokpi/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const salesCSV = "date,qt_price_local,ds_product_name\n" +
	"2024-11-04,10.000,van_exclusive\n" +
	"2024-11-05,11.990,van_exclusive\n" +
	"2024-11-05,5.000,van_compartida\n"

type upload struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()

	h, err := NewHandler(Options{ExportDir: t.TempDir()})
	require.NoError(t, err)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, h
}

func post(t *testing.T, r http.Handler, path string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestReport_JSON(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	w := post(t, r, "/api/report",
		map[string]string{"date_from": "2024-11-04", "date_to": "2024-11-05"},
		upload{"sales", "ventas.csv", salesCSV})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Daily.Rows, 2)
	assert.InDelta(t, 16990, *report.Daily.Rows[1].Values[model.KPISalesTotal], 1e-9)
	require.Len(t, report.Period.Rows, 1)
	assert.Equal(t, "2024-11-04 → 2024-11-05", report.Period.Rows[0].Label)
	assert.Len(t, report.Sources, len(model.AllSourceKinds()))
}

func TestReport_AutoRecognition(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	w := post(t, r, "/api/report", nil, upload{autoField, "ventas.csv", salesCSV})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "2024-11-04", report.DateFrom.Format(model.DateLayout))
	assert.Equal(t, "2024-11-05", report.DateTo.Format(model.DateLayout))

	w = post(t, r, "/api/report", nil, upload{autoField, "otro.csv", "foo,bar\n1,2\n"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReport_Validation(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	cases := []struct {
		name   string
		fields map[string]string
		files  []upload
		want   string
	}{
		{
			name:   "reversed range",
			fields: map[string]string{"date_from": "2024-11-30", "date_to": "2024-11-01"},
			files:  []upload{{"sales", "ventas.csv", salesCSV}},
			want:   "date_to 不能早于 date_from",
		},
		{
			name:   "bad date",
			fields: map[string]string{"date_from": "30/11/2024"},
			files:  []upload{{"sales", "ventas.csv", salesCSV}},
			want:   "DateFrom 日期格式应为 YYYY-MM-DD",
		},
		{
			name:   "bad format",
			fields: map[string]string{"format": "pdf"},
			files:  []upload{{"sales", "ventas.csv", salesCSV}},
			want:   "Format 只能是 json xlsx",
		},
		{
			name:  "unknown source",
			files: []upload{{"ventas", "ventas.csv", salesCSV}},
			want:  "未知的来源字段: ventas",
		},
		{
			name: "no files",
			want: "未找到上传文件",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, r, "/api/report", tc.fields, tc.files...)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, errorOf(t, w))
		})
	}
}

func TestReport_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	w := post(t, r, "/api/report", nil, upload{"sales", "ventas.pdf", "%PDF"})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestReport_Workbook(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	w := post(t, r, "/api/report", map[string]string{"format": "xlsx"}, upload{"sales", "ventas.csv", salesCSV})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="reporte_2024-11-04_2024-11-05.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Transpuesto")
}

type sseEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()

	var out []sseEvent
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var e sseEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &e))
		out = append(out, e)
	}
	return out
}

func TestReportStream_Download(t *testing.T) {
	t.Parallel()

	r, h := newTestRouter(t)
	w := post(t, r, "/api/report/stream", nil, upload{"sales", "ventas.csv", salesCSV})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0].Type)

	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, "source_done")
	assert.Contains(t, types, eventExportProgress)

	last := events[len(events)-1]
	require.Equal(t, "done", last.Type)
	var done struct {
		RunID       string `json:"runId"`
		DownloadURL string `json:"downloadUrl"`
	}
	require.NoError(t, json.Unmarshal(last.Data, &done))
	require.True(t, strings.HasPrefix(done.DownloadURL, "/api/export/download/"))
	assert.Equal(t, 1, h.downloads.len())

	req := httptest.NewRequest(http.MethodGet, done.DownloadURL, nil)
	dl := httptest.NewRecorder()
	r.ServeHTTP(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, xlsxContentType, dl.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(dl.Body.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), "Diario")
	_ = f.Close()

	_, err = os.Stat(filepath.Join(h.exportDir, "aerokpi_export_"+done.RunID+".xlsx"))
	assert.True(t, os.IsNotExist(err))

	// 一次性链接
	dl = httptest.NewRecorder()
	r.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, done.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, dl.Code)
}

func TestReportStream_Error(t *testing.T) {
	t.Parallel()

	r, h := newTestRouter(t)
	w := post(t, r, "/api/report/stream", nil, upload{autoField, "otro.csv", "foo,bar\n1,2\n"})
	require.Equal(t, http.StatusOK, w.Code)

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "error", events[len(events)-1].Type)
	assert.Zero(t, h.downloads.len())
}

func TestStatusAndConfig(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	post(t, r, "/api/report", nil, upload{"sales", "ventas.csv", salesCSV})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Runs)
	require.NotNil(t, status.LastRun)
	assert.True(t, status.LastRun.OK)
	assert.Equal(t, 2, status.LastRun.Days)
	assert.Contains(t, status.Sources, "rescue")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var cfg ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, "not_pending", cfg.ResolvedMode)
	assert.Equal(t, model.DefaultCatalog().Sections(), cfg.Sections)
	require.NotEmpty(t, cfg.KPIs)
	assert.Equal(t, model.KPISalesTotal, cfg.KPIs[0].Name)
}

func TestExportDownloadStore_Expiry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	now := time.Date(2024, 11, 4, 10, 0, 0, 0, time.UTC)
	s := newExportDownloadStore(time.Minute)
	s.now = func() time.Time { return now }

	token := s.put(path, "x.xlsx", "run")
	_, ok := s.get(token)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = s.get(token)
	assert.False(t, ok)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestReports_KeptInMemory(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	w := post(t, r, "/api/report", nil, upload{"sales", "ventas.csv", salesCSV})
	require.Equal(t, http.StatusOK, w.Code)
	var report model.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	list := get("/api/reports")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), report.RunID)

	got := get("/api/reports/" + report.RunID)
	require.Equal(t, http.StatusOK, got.Code)

	csvResp := get("/api/reports/" + report.RunID + "/csv/period")
	require.Equal(t, http.StatusOK, csvResp.Code)
	assert.Equal(t, "text/csv; charset=utf-8", csvResp.Header().Get("Content-Type"))
	assert.Contains(t, csvResp.Body.String(), "2024-11-04 → 2024-11-05")

	assert.Equal(t, http.StatusBadRequest, get("/api/reports/"+report.RunID+"/csv/monthly").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/reports/nope").Code)

	del := httptest.NewRecorder()
	r.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/api/reports/"+report.RunID, nil))
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, get("/api/reports/"+report.RunID).Code)
}
