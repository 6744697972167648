package store

import (
	"context"
	"fmt"

	"ledger/models"
)

// Store 记录存储抽象：整体读取、整体写回
// LoadAll 在尚无数据时返回空切片而不是错误
type Store interface {
	LoadAll(ctx context.Context) ([]models.Expense, error)
	SaveAll(ctx context.Context, records []models.Expense) error
	Close() error
}

// 支持的存储驱动
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// withSeq 按切片顺序写入 Seq，保证数据库读回时顺序不变
func withSeq(records []models.Expense) []models.Expense {
	out := models.CloneExpenses(records)
	for i := range out {
		out[i].Seq = i
	}
	return out
}

func checkUnique(records []models.Expense) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("重复的记录 ID: %s", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
