package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus 消费记录支付状态
type ExpenseStatus string

const (
	StatusUnpaid ExpenseStatus = "unpaid"
	StatusPaid   ExpenseStatus = "paid"
)

// Valid 判断状态是否合法
func (s ExpenseStatus) Valid() bool {
	return s == StatusUnpaid || s == StatusPaid
}

// Expense 消费记录模型
// PaidAt 与 PaidBatchID 要么同时为空，要么同时有值
type Expense struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Person      string          `json:"person" gorm:"size:100;not null;index"`
	Item        string          `json:"item" gorm:"size:255;not null"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:decimal(20,6);not null" swaggertype:"string" example:"50.75"`
	Status      ExpenseStatus   `json:"status" gorm:"size:16;not null;default:unpaid"`
	AddedAt     time.Time       `json:"added_at" gorm:"not null"`
	PaidAt      *time.Time      `json:"paid_at"`
	PaidBatchID *string         `json:"paid_batch_id" gorm:"size:36;index"`
	Seq         int             `json:"-" gorm:"not null;default:0"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// IsPaid 是否已支付
func (e Expense) IsPaid() bool {
	return e.Status == StatusPaid
}

// Clone 深拷贝，避免共享指针字段
func (e Expense) Clone() Expense {
	out := e
	if e.PaidAt != nil {
		t := *e.PaidAt
		out.PaidAt = &t
	}
	if e.PaidBatchID != nil {
		id := *e.PaidBatchID
		out.PaidBatchID = &id
	}
	return out
}

// CloneExpenses 拷贝整个记录集
func CloneExpenses(records []Expense) []Expense {
	out := make([]Expense, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
