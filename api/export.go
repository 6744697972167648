package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"ledger/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	svc  *service.ExpenseService
	view *Presenter
}

// NewExportHandler 创建导出处理器
func NewExportHandler(svc *service.ExpenseService, view *Presenter) *ExportHandler {
	return &ExportHandler{svc: svc, view: view}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// table 导出用的二维表
type table struct {
	sheet   string
	headers []string
	widths  []float64
	rows    [][]string
	summary []string
}

func (t table) csv() ([]byte, error) {
	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(t.headers); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return nil, err
	}
	if t.summary != nil {
		if err := writer.Write(t.summary); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func (t table) excel() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder(),
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: cellBorder(),
	})

	last, _ := excelize.ColumnNumberToName(len(t.headers))
	for i, w := range t.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(t.sheet, col, col, w)
	}

	writeRow := func(row int, values []string, style int) {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(t.sheet, cell, v)
		}
		f.SetCellStyle(t.sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", last, row), style)
	}

	writeRow(1, t.headers, headerStyle)
	for i, r := range t.rows {
		writeRow(i+2, r, dataStyle)
	}
	if t.summary != nil {
		writeRow(len(t.rows)+2, t.summary, summaryStyle)
	}
	return f, nil
}

func (h *ExportHandler) reportTable(report map[string]service.PersonReport) table {
	view := h.view.Report(report)
	t := table{
		sheet:   "未支付",
		headers: []string{"姓名", "项目", "金额", "添加时间", "ID"},
		widths:  []float64{16, 30, 14, 20, 38},
	}
	for _, p := range view.People {
		for _, it := range p.Items {
			t.rows = append(t.rows, []string{p.Person, it.Item, it.Cost, it.AddedAt.Local().Format(dateTimeLayout), it.ID})
		}
	}
	t.summary = []string{"合计", fmt.Sprintf("共 %d 人", len(view.People)), view.GrandTotal, view.Currency, ""}
	return t
}

func (h *ExportHandler) historyTable(entries []service.HistoryEntry) table {
	t := table{
		sheet:   "支付历史",
		headers: []string{"批次号", "姓名", "支付时间", "项目", "金额", "添加时间"},
		widths:  []float64{38, 16, 20, 30, 14, 20},
	}
	for _, b := range h.view.History(entries) {
		for _, it := range b.Items {
			t.rows = append(t.rows, []string{
				b.BatchID, b.Person, b.PaidAt.Local().Format(dateTimeLayout),
				it.Item, it.Cost, it.AddedAt.Local().Format(dateTimeLayout),
			})
		}
	}
	return t
}

// write 按格式输出表格
func (h *ExportHandler) write(c *gin.Context, format, name string, t table, jsonData interface{}) {
	stamp := time.Now().Format("20060102")
	switch format {
	case "", "csv":
		data, err := t.csv()
		if err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", name, stamp))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	case "excel", "xlsx":
		f, err := t.excel()
		if err != nil {
			InternalError(c, "生成 Excel 失败")
			return
		}
		defer f.Close()
		buf, err := f.WriteToBuffer()
		if err != nil {
			InternalError(c, "生成 Excel 失败")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.xlsx", name, stamp))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	case "json":
		Success(c, jsonData)
	default:
		BadRequest(c, "不支持的导出格式，可选: csv, excel, json")
	}
}

// ExportReport 导出未支付报表
// @Summary 导出未支付报表
// @Description 以 CSV（默认）、Excel 或 JSON 格式导出未支付报表
// @Tags 导出
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce json
// @Param format query string false "导出格式 (csv / excel / json)" default(csv)
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Response "不支持的导出格式"
// @Router /api/v1/export/report [get]
func (h *ExportHandler) ExportReport(c *gin.Context) {
	report, err := h.svc.UnpaidReport(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询报表失败")
		return
	}
	h.write(c, c.Query("format"), "unpaid_report", h.reportTable(report), h.view.Report(report))
}

// ExportHistory 导出支付历史
// @Summary 导出支付历史
// @Description 以 CSV（默认）、Excel 或 JSON 格式导出支付历史，每行一条记录
// @Tags 导出
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce json
// @Param format query string false "导出格式 (csv / excel / json)" default(csv)
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Response "不支持的导出格式"
// @Router /api/v1/export/history [get]
func (h *ExportHandler) ExportHistory(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询支付历史失败")
		return
	}
	h.write(c, c.Query("format"), "payment_history", h.historyTable(entries), h.view.History(entries))
}
