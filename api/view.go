package api

import (
	"time"

	"ledger/models"
	"ledger/service"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	minuteLayout   = "2006-01-02 15:04"
)

// ExpenseView 带格式化金额的消费记录
type ExpenseView struct {
	ID          string               `json:"id"`
	Person      string               `json:"person"`
	Item        string               `json:"item"`
	Cost        string               `json:"cost" example:"50.75"`
	CostText    string               `json:"cost_text" example:"USD 50.75"`
	Status      models.ExpenseStatus `json:"status" swaggertype:"string" example:"unpaid"`
	AddedAt     time.Time            `json:"added_at"`
	PaidAt      *time.Time           `json:"paid_at,omitempty"`
	PaidBatchID *string              `json:"paid_batch_id,omitempty"`
}

// AddedText 页面显示用的创建时间
func (v ExpenseView) AddedText() string {
	return v.AddedAt.Local().Format(minuteLayout)
}

// IsPaid 是否已支付
func (v ExpenseView) IsPaid() bool {
	return v.Status == models.StatusPaid
}

// PersonReportView 某人的未支付汇总
type PersonReportView struct {
	Person    string        `json:"person"`
	Items     []ExpenseView `json:"items"`
	Total     string        `json:"total" example:"70.75"`
	TotalText string        `json:"total_text" example:"USD 70.75"`
}

// ReportView 未支付报表
type ReportView struct {
	Currency       string             `json:"currency" example:"USD"`
	People         []PersonReportView `json:"people"`
	GrandTotal     string             `json:"grand_total" example:"70.75"`
	GrandTotalText string             `json:"grand_total_text" example:"USD 70.75"`
}

// HistoryView 一个支付批次
type HistoryView struct {
	BatchID   string        `json:"batch_id"`
	Person    string        `json:"person"`
	PaidAt    time.Time     `json:"paid_at"`
	Items     []ExpenseView `json:"items"`
	Total     string        `json:"total" example:"70.75"`
	TotalText string        `json:"total_text" example:"USD 70.75"`
}

// PaidText 页面显示用的支付时间
func (v HistoryView) PaidText() string {
	return v.PaidAt.Local().Format(minuteLayout)
}

// Presenter 把业务结果转换为视图模型
type Presenter struct {
	format *service.CurrencyFormatter
}

// NewPresenter 创建视图转换器
func NewPresenter(format *service.CurrencyFormatter) *Presenter {
	return &Presenter{format: format}
}

// Expense 单条记录
func (p *Presenter) Expense(e models.Expense) ExpenseView {
	return ExpenseView{
		ID:          e.ID,
		Person:      e.Person,
		Item:        e.Item,
		Cost:        p.format.Plain(e.Cost),
		CostText:    p.format.Format(e.Cost),
		Status:      e.Status,
		AddedAt:     e.AddedAt,
		PaidAt:      e.PaidAt,
		PaidBatchID: e.PaidBatchID,
	}
}

// Expenses 多条记录
func (p *Presenter) Expenses(records []models.Expense) []ExpenseView {
	out := make([]ExpenseView, 0, len(records))
	for _, r := range records {
		out = append(out, p.Expense(r))
	}
	return out
}

// Report 按人名排序的报表
func (p *Presenter) Report(report map[string]service.PersonReport) ReportView {
	view := ReportView{Currency: p.format.Code(), People: []PersonReportView{}}
	for _, person := range service.ReportPeople(report) {
		r := report[person]
		view.People = append(view.People, PersonReportView{
			Person:    r.Person,
			Items:     p.Expenses(r.Items),
			Total:     p.format.Plain(r.Total),
			TotalText: p.format.Format(r.Total),
		})
	}
	total := service.GrandTotal(report)
	view.GrandTotal = p.format.Plain(total)
	view.GrandTotalText = p.format.Format(total)
	return view
}

// Batch 单个批次
func (p *Presenter) Batch(e service.HistoryEntry) HistoryView {
	return HistoryView{
		BatchID:   e.BatchID,
		Person:    e.Person,
		PaidAt:    e.PaidAt,
		Items:     p.Expenses(e.Items),
		Total:     p.format.Plain(e.Total),
		TotalText: p.format.Format(e.Total),
	}
}

// History 支付历史
func (p *Presenter) History(entries []service.HistoryEntry) []HistoryView {
	out := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, p.Batch(e))
	}
	return out
}
