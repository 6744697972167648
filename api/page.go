package api

import (
	"fmt"
	"net/http"
	"net/url"

	"ledger/service"

	"github.com/gin-gonic/gin"
)

// PageHandler 网页处理器，表单提交后重定向
type PageHandler struct {
	svc  *service.ExpenseService
	view *Presenter
}

// NewPageHandler 创建网页处理器
func NewPageHandler(svc *service.ExpenseService, view *Presenter) *PageHandler {
	return &PageHandler{svc: svc, view: view}
}

// expenseForm 新增/修改表单
type expenseForm struct {
	Person string `form:"person"`
	Item   string `form:"item"`
	Cost   string `form:"cost"`
}

// redirect 303 跳转，出错时带上 error 参数
func redirect(c *gin.Context, path string, err error) {
	if err != nil {
		path += "?error=" + url.QueryEscape(messageOf(err, "操作失败"))
	}
	c.Redirect(http.StatusSeeOther, path)
}

// bindForm 解析表单，失败时按参数错误处理
func bindForm(c *gin.Context) (expenseForm, error) {
	var form expenseForm
	if err := c.ShouldBind(&form); err != nil {
		return form, fmt.Errorf("%w: 表单格式错误: %v", service.ErrInvalidInput, err)
	}
	return form, nil
}

// back 优先回到表单提交前的页面
func back(c *gin.Context) string {
	if c.PostForm("back") == "history" {
		return "/history"
	}
	return "/"
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	c.HTML(statusOf(err), "error.html", gin.H{
		"title":   "出错了",
		"message": messageOf(err, "加载数据失败"),
	})
}

// Index 首页：新增表单 + 未支付报表
func (h *PageHandler) Index(c *gin.Context) {
	report, err := h.svc.UnpaidReport(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":  "未支付",
		"error":  c.Query("error"),
		"report": h.view.Report(report),
	})
}

// HistoryPage 支付历史页
func (h *PageHandler) HistoryPage(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "history.html", gin.H{
		"title":   "支付历史",
		"error":   c.Query("error"),
		"batches": h.view.History(entries),
	})
}

// EditPage 修改表单
func (h *PageHandler) EditPage(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "edit.html", gin.H{
		"title":         "修改记录",
		"error":         c.Query("error"),
		"expense":       h.view.Expense(rec),
		"allowEditPaid": h.svc.AllowEditPaid(),
	})
}

// Create 提交新增表单
func (h *PageHandler) Create(c *gin.Context) {
	form, err := bindForm(c)
	if err != nil {
		redirect(c, "/", err)
		return
	}
	_, err = h.svc.Add(c.Request.Context(), form.Person, form.Item, form.Cost)
	redirect(c, "/", err)
}

// Update 提交修改表单
func (h *PageHandler) Update(c *gin.Context) {
	id := c.Param("id")
	editPath := "/expenses/" + url.PathEscape(id) + "/edit"
	form, err := bindForm(c)
	if err != nil {
		redirect(c, editPath, err)
		return
	}
	rec, err := h.svc.Edit(c.Request.Context(), id, form.Person, form.Item, form.Cost)
	if err != nil {
		redirect(c, editPath, err)
		return
	}
	if rec.IsPaid() {
		redirect(c, "/history", nil)
		return
	}
	redirect(c, "/", nil)
}

// Delete 删除记录
func (h *PageHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	redirect(c, back(c), err)
}

// Pay 结清单条记录
func (h *PageHandler) Pay(c *gin.Context) {
	_, err := h.svc.PayByItem(c.Request.Context(), c.Param("id"))
	redirect(c, "/", err)
}

// Toggle 切换支付状态
func (h *PageHandler) Toggle(c *gin.Context) {
	_, err := h.svc.TogglePaid(c.Request.Context(), c.Param("id"))
	redirect(c, back(c), err)
}

// PayPerson 结清某人全部记录，姓名来自表单字段
func (h *PageHandler) PayPerson(c *gin.Context) {
	_, err := h.svc.PayByPerson(c.Request.Context(), c.PostForm("person"))
	redirect(c, "/", err)
}
