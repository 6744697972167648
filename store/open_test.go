package store

import (
	"path/filepath"
	"testing"

	"ledger/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		driver string
		want   interface{}
	}{
		{DriverMemory, &MemoryStore{}},
		{DriverFile, &FileStore{}},
		{DriverSQLite, &SQLiteStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{Storage: config.StorageConfig{
				Driver:     tt.driver,
				FilePath:   filepath.Join(dir, "expenses.json"),
				SQLitePath: filepath.Join(dir, "ledger.db"),
			}}
			s, err := Open(cfg)
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}

	_, err := Open(&config.Config{Storage: config.StorageConfig{Driver: "redis"}})
	assert.Error(t, err)
}
