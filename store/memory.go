package store

import (
	"context"
	"sync"

	"ledger/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore 内存存储，重启后数据丢失
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Expense
}

// NewMemoryStore 创建内存存储，可传入初始数据
func NewMemoryStore(seed ...models.Expense) *MemoryStore {
	return &MemoryStore{records: withSeq(seed)}
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneExpenses(s.records), nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, records []models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUnique(records); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = withSeq(records)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
