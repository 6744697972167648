package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock, func() { sqlDB.Close() }
}

var expenseColumns = []string{"id", "person", "item", "cost", "status", "added_at", "paid_at", "paid_batch_id", "seq"}

func TestGormStore_LoadAll(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	paid := added.Add(time.Hour)
	mock.ExpectQuery("SELECT \\* FROM `expenses` ORDER BY seq ASC").
		WillReturnRows(sqlmock.NewRows(expenseColumns).
			AddRow("a", "Martyna", "Groceries", "50.75", "unpaid", added, nil, nil, 0).
			AddRow("b", "Martyna", "Taxi", "20.00", "paid", added, paid, "batch-1", 1))

	got, err := NewGormStore(db).LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "50.75", got[0].Cost.StringFixed(2))
	assert.Nil(t, got[0].PaidBatchID)
	require.NotNil(t, got[1].PaidBatchID)
	assert.Equal(t, "batch-1", *got[1].PaidBatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_LoadAllEmpty(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `expenses`").
		WillReturnRows(sqlmock.NewRows(expenseColumns))

	got, err := NewGormStore(db).LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGormStore_SaveAll(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := NewGormStore(db).SaveAll(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveAllEmpty(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewGormStore(db).SaveAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveAllRollsBackOnInsertError(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewGormStore(db).SaveAll(context.Background(), sampleRecords())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
