package store

import (
	"context"
	"fmt"

	"ledger/models"

	"gorm.io/gorm"
)

var _ Store = (*GormStore)(nil)

// GormStore 基于 GORM 的存储，目前用于 MySQL
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

// NewGormStore 使用已初始化的数据库连接创建存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, batchSize: 100}
}

func (s *GormStore) LoadAll(ctx context.Context) ([]models.Expense, error) {
	records := []models.Expense{}
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	return records, nil
}

// SaveAll 在事务中整体替换记录
func (s *GormStore) SaveAll(ctx context.Context, records []models.Expense) error {
	if err := checkUnique(records); err != nil {
		return err
	}
	rows := withSeq(records)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Expense{}).Error; err != nil {
			return fmt.Errorf("清空记录失败: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, s.batchSize).Error; err != nil {
			return fmt.Errorf("写入记录失败: %w", err)
		}
		return nil
	})
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
