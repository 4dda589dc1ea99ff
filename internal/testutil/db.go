package testutil

import (
	"strconv"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/trustcircle/internal/model"
)

// NewDB 返回一个已迁移的 sqlite 内存库，测试结束自动关闭。
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// :memory: 每个连接都是独立的库
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(model.All()...); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// SeedUsers 按 id 创建用户 u<id>
func SeedUsers(tb testing.TB, db *gorm.DB, ids ...int64) {
	tb.Helper()
	for _, id := range ids {
		u := model.User{ID: id, Username: "u" + strconv.FormatInt(id, 10), DisplayName: "User " + strconv.FormatInt(id, 10)}
		if err := db.Create(&u).Error; err != nil {
			tb.Fatalf("seed user %d: %v", id, err)
		}
	}
}
