package mysql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookreview/internal/domain/book"
)

// newTestDB 基于SQLite文件库的测试DB(开启外键,单连接)
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bookreview.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func strp(s string) *string { return &s }

// seedBook 插入一本测试图书
func seedBook(t *testing.T, repo book.Repository, title, author, genre string) *book.Book {
	t.Helper()
	b, err := book.NewBook(title, author, genre)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}
