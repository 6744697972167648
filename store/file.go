package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ledger/models"
)

var _ Store = (*FileStore)(nil)

// FileStore 单个 JSON 文件存储，每次写入整体替换文件
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore 创建文件存储，文件可以尚不存在
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 返回数据文件路径
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) LoadAll(ctx context.Context) ([]models.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Expense{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Expense{}, nil
	}

	var records []models.Expense
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析数据文件失败: %w", err)
	}
	if records == nil {
		records = []models.Expense{}
	}
	return records, nil
}

func (s *FileStore) SaveAll(ctx context.Context, records []models.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkUnique(records); err != nil {
		return err
	}
	if records == nil {
		records = []models.Expense{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("替换数据文件失败: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
