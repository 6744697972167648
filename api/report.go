package api

import (
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler 报表与支付历史处理器
type ReportHandler struct {
	svc  *service.ExpenseService
	view *Presenter
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ExpenseService, view *Presenter) *ReportHandler {
	return &ReportHandler{svc: svc, view: view}
}

// Unpaid 未支付报表
// @Summary 未支付报表
// @Description 按人汇总未支付记录，人名按字母排序，记录按添加时间排序
// @Tags 报表
// @Produce json
// @Success 200 {object} Response{data=ReportView} "获取成功"
// @Failure 500 {object} Response "存储错误"
// @Router /api/v1/report/unpaid [get]
func (h *ReportHandler) Unpaid(c *gin.Context) {
	report, err := h.svc.UnpaidReport(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询报表失败")
		return
	}
	Success(c, h.view.Report(report))
}

// PayPerson 结清某人全部未支付记录
// @Summary 按人结清
// @Description 将某人全部未支付记录标记为同一批次
// @Tags 支付
// @Produce json
// @Param person path string true "姓名"
// @Success 200 {object} Response{data=HistoryView} "支付成功"
// @Failure 404 {object} Response "没有未支付记录"
// @Router /api/v1/report/unpaid/{person}/pay [post]
func (h *ReportHandler) PayPerson(c *gin.Context) {
	entry, err := h.svc.PayByPerson(c.Request.Context(), c.Param("person"))
	if err != nil {
		respondError(c, err, "支付失败")
		return
	}
	SuccessWithMessage(c, "支付成功", h.view.Batch(entry))
}

// PayPersonRequest 按人结清请求
type PayPersonRequest struct {
	Person string `json:"person" binding:"required" example:"Martyna"`
}

// PayPersonByBody 结清某人全部未支付记录，姓名放在请求体中
// @Summary 按人结清（请求体）
// @Description 与路径参数版本相同，姓名中包含 / 等字符时使用
// @Tags 支付
// @Accept json
// @Produce json
// @Param request body PayPersonRequest true "姓名"
// @Success 200 {object} Response{data=HistoryView} "支付成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "没有未支付记录"
// @Router /api/v1/report/pay [post]
func (h *ReportHandler) PayPersonByBody(c *gin.Context) {
	var req PayPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	entry, err := h.svc.PayByPerson(c.Request.Context(), req.Person)
	if err != nil {
		respondError(c, err, "支付失败")
		return
	}
	SuccessWithMessage(c, "支付成功", h.view.Batch(entry))
}

// History 支付历史
// @Summary 支付历史
// @Description 按批次分组的已支付记录，最近支付的在前
// @Tags 报表
// @Produce json
// @Success 200 {object} Response{data=[]HistoryView} "获取成功"
// @Failure 500 {object} Response "存储错误"
// @Router /api/v1/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询支付历史失败")
		return
	}
	Success(c, h.view.History(entries))
}
