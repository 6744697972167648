package api

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func (e *testEnv) exportRouter() *gin.Engine {
	r := gin.New()
	h := NewExportHandler(e.svc, e.view)
	r.GET("/export/report", h.ExportReport)
	r.GET("/export/history", h.ExportHistory)
	return r
}

func readCSV(t *testing.T, body []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")), "缺少 BOM")
	rows, err := csv.NewReader(bytes.NewReader(body[3:])).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportHandler_ExportReport_CSV(t *testing.T) {
	env := newTestEnv(t)
	seedMartyna(t, env)

	w := doJSON(env.exportRouter(), "GET", "/export/report", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "unpaid_report_")

	rows := readCSV(t, w.Body.Bytes())
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"姓名", "项目", "金额", "添加时间", "ID"}, rows[0])
	assert.Equal(t, []string{"Kasia", "Bread", "5.00"}, rows[1][:3])
	assert.Equal(t, []string{"Martyna", "Groceries", "50.75"}, rows[2][:3])
	assert.Equal(t, []string{"Martyna", "Coffee", "20.00"}, rows[3][:3])
	assert.Equal(t, "合计", rows[4][0])
	assert.Equal(t, "75.75", rows[4][2])
}

func TestExportHandler_ExportReport_Excel(t *testing.T) {
	env := newTestEnv(t)
	seedMartyna(t, env)

	w := doJSON(env.exportRouter(), "GET", "/export/report?format=excel", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasSuffix(w.Header().Get("Content-Disposition"), ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("未支付")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "姓名", rows[0][0])
	assert.Equal(t, "Kasia", rows[1][0])
	assert.Equal(t, "75.75", rows[4][2])
}

func TestExportHandler_ExportReport_JSON(t *testing.T) {
	env := newTestEnv(t)
	seedMartyna(t, env)

	w := doJSON(env.exportRouter(), "GET", "/export/report?format=json", "")
	assert.Equal(t, 200, w.Code)
	var report ReportView
	decode(t, w, &report)
	assert.Len(t, report.People, 2)
}

func TestExportHandler_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(env.exportRouter(), "GET", "/export/history?format=pdf", "")
	assert.Equal(t, 400, w.Code)
}

func TestExportHandler_ExportHistory(t *testing.T) {
	env := newTestEnv(t)
	seedMartyna(t, env)
	entry, err := env.svc.PayByPerson(t.Context(), "Martyna")
	require.NoError(t, err)

	router := env.exportRouter()

	w := doJSON(router, "GET", "/export/history?format=csv", "")
	assert.Equal(t, 200, w.Code)
	rows := readCSV(t, w.Body.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, "批次号", rows[0][0])
	for _, row := range rows[1:] {
		assert.Equal(t, entry.BatchID, row[0])
		assert.Equal(t, "Martyna", row[1])
	}
	assert.Equal(t, "Groceries", rows[1][3])
	assert.Equal(t, "50.75", rows[1][4])

	w = doJSON(router, "GET", "/export/history?format=xlsx", "")
	assert.Equal(t, 200, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	xrows, err := f.GetRows("支付历史")
	require.NoError(t, err)
	assert.Len(t, xrows, 3)
}
