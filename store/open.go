package store

import (
	"fmt"

	"ledger/config"
	"ledger/database"
)

// Open 按配置创建存储
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(cfg.Storage.FilePath), nil
	case DriverSQLite:
		return NewSQLiteStore(cfg.Storage.SQLitePath)
	case DriverMySQL:
		if err := database.Init(cfg); err != nil {
			return nil, err
		}
		return NewGormStore(database.DB), nil
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %q", cfg.Storage.Driver)
	}
}
