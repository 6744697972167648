package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ledger/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore 基于 SQLite 的存储（纯 Go 驱动，无需 CGO）
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore 打开数据库并执行迁移，父目录不存在时自动创建
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// SQLite 只允许一个写连接
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// RunMigrations 使用独立连接执行嵌入的迁移脚本
func RunMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("打开迁移连接失败: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取迁移脚本失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("创建迁移实例失败: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person, item, cost, status, added_at, paid_at, paid_batch_id, seq
		FROM expenses ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("查询记录失败: %w", err)
	}
	defer rows.Close()

	records := []models.Expense{}
	for rows.Next() {
		var (
			r               models.Expense
			cost, status    string
			addedAt         string
			paidAt, batchID sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Person, &r.Item, &cost, &status, &addedAt, &paidAt, &batchID, &r.Seq); err != nil {
			return nil, fmt.Errorf("读取记录失败: %w", err)
		}
		if r.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("记录 %s 金额无效: %w", r.ID, err)
		}
		r.Status = models.ExpenseStatus(status)
		if r.AddedAt, err = time.Parse(time.RFC3339Nano, addedAt); err != nil {
			return nil, fmt.Errorf("记录 %s 创建时间无效: %w", r.ID, err)
		}
		if paidAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, paidAt.String)
			if err != nil {
				return nil, fmt.Errorf("记录 %s 支付时间无效: %w", r.ID, err)
			}
			r.PaidAt = &t
		}
		if batchID.Valid {
			id := batchID.String
			r.PaidBatchID = &id
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历记录失败: %w", err)
	}
	return records, nil
}

// SaveAll 在一个事务中清空并重新写入全部记录
func (s *SQLiteStore) SaveAll(ctx context.Context, records []models.Expense) error {
	if err := checkUnique(records); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("清空记录失败: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (id, person, item, cost, status, added_at, paid_at, paid_batch_id, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("预编译语句失败: %w", err)
	}
	defer stmt.Close()

	for _, r := range withSeq(records) {
		var paidAt, batchID sql.NullString
		if r.PaidAt != nil {
			paidAt = sql.NullString{String: r.PaidAt.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		if r.PaidBatchID != nil {
			batchID = sql.NullString{String: *r.PaidBatchID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Person, r.Item, r.Cost.String(), string(r.Status),
			r.AddedAt.UTC().Format(time.RFC3339Nano), paidAt, batchID, r.Seq,
		); err != nil {
			return fmt.Errorf("写入记录 %s 失败: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
