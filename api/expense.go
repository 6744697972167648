package api

import (
	"encoding/json"
	"strings"

	"ledger/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 消费记录处理器
type ExpenseHandler struct {
	svc  *service.ExpenseService
	view *Presenter
}

// NewExpenseHandler 创建消费记录处理器
func NewExpenseHandler(svc *service.ExpenseService, view *Presenter) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, view: view}
}

// CostInput 金额输入，兼容 JSON 数字和字符串（允许逗号小数点）
type CostInput string

// UnmarshalJSON 同时接受 50.75 和 "50,75"
func (c *CostInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = CostInput(s)
		return nil
	}
	if raw == "null" {
		*c = ""
		return nil
	}
	*c = CostInput(raw)
	return nil
}

// ExpenseRequest 创建/修改消费记录请求
type ExpenseRequest struct {
	Person string    `json:"person" binding:"required" example:"Martyna"`
	Item   string    `json:"item" binding:"required" example:"Groceries"`
	Cost   CostInput `json:"cost" binding:"required" swaggertype:"string" example:"50.75"`
}

// Create 创建消费记录
// @Summary 创建消费记录
// @Description 新增一条未支付的消费记录，金额可使用逗号作为小数点
// @Tags 消费记录
// @Accept json
// @Produce json
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=ExpenseView} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 500 {object} Response "存储错误"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	rec, err := h.svc.Add(c.Request.Context(), req.Person, req.Item, string(req.Cost))
	if err != nil {
		respondError(c, err, "创建消费记录失败")
		return
	}

	SuccessWithMessage(c, "创建成功", h.view.Expense(rec))
}

// List 获取全部消费记录
// @Summary 获取消费记录列表
// @Description 按添加时间升序返回全部记录，可按状态筛选
// @Tags 消费记录
// @Produce json
// @Param status query string false "状态筛选 (unpaid / paid)"
// @Success 200 {object} Response{data=[]ExpenseView} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != "unpaid" && status != "paid" {
		BadRequest(c, "状态只能是 unpaid 或 paid")
		return
	}

	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}

	views := h.view.Expenses(records)
	if status != "" {
		filtered := views[:0]
		for _, v := range views {
			if string(v.Status) == status {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	Success(c, views)
}

// Get 获取单条消费记录
// @Summary 获取消费记录详情
// @Tags 消费记录
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} Response{data=ExpenseView} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	Success(c, h.view.Expense(rec))
}

// Update 修改消费记录
// @Summary 修改消费记录
// @Description 只修改姓名、项目和金额；是否允许修改已支付记录由配置 expenses.allow_edit_paid 决定
// @Tags 消费记录
// @Accept json
// @Produce json
// @Param id path string true "记录ID"
// @Param request body ExpenseRequest true "消费记录信息"
// @Success 200 {object} Response{data=ExpenseView} "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Failure 409 {object} Response "已支付记录不可修改"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	rec, err := h.svc.Edit(c.Request.Context(), c.Param("id"), req.Person, req.Item, string(req.Cost))
	if err != nil {
		respondError(c, err, "修改消费记录失败")
		return
	}
	SuccessWithMessage(c, "修改成功", h.view.Expense(rec))
}

// Delete 删除消费记录
// @Summary 删除消费记录
// @Description 删除单条记录，同批次的其他记录不受影响
// @Tags 消费记录
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "删除消费记录失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// Pay 结清单条记录
// @Summary 结清单条记录
// @Description 为单条未支付记录生成新的批次
// @Tags 支付
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} Response{data=HistoryView} "支付成功"
// @Failure 404 {object} Response "记录不存在"
// @Failure 409 {object} Response "记录已支付"
// @Router /api/v1/expenses/{id}/pay [post]
func (h *ExpenseHandler) Pay(c *gin.Context) {
	entry, err := h.svc.PayByItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "支付失败")
		return
	}
	SuccessWithMessage(c, "支付成功", h.view.Batch(entry))
}

// Toggle 切换支付状态
// @Summary 切换支付状态
// @Description 已支付改为未支付时清空批次信息；未支付改为已支付时生成新批次
// @Tags 支付
// @Produce json
// @Param id path string true "记录ID"
// @Success 200 {object} Response{data=ExpenseView} "切换成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id}/toggle [post]
func (h *ExpenseHandler) Toggle(c *gin.Context) {
	rec, err := h.svc.TogglePaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "切换支付状态失败")
		return
	}
	SuccessWithMessage(c, "切换成功", h.view.Expense(rec))
}
