package mysql

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookreview/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	// 连接池
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.WithFields(logrus.Fields{
		"host": cfg.Database.Host,
		"db":   cfg.Database.DBName,
	}).Info("数据库连接成功")

	// 注意：生产环境应使用版本化的迁移脚本，不要依赖AutoMigrate
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构
// books必须先于reviews创建（reviews.book_id外键引用books.id）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&ReviewModel{},
	)
}

// BookModel GORM图书模型
// 设计说明:
// 1. external_id唯一索引(允许多个NULL),防止同一外部书目被导入两次
// 2. 删除图书时数据库级联删除评论(ON DELETE CASCADE),不使用软删除
// 3. title/author索引用于列表搜索
type BookModel struct {
	ID           uint          `gorm:"primaryKey"`
	Title        string        `gorm:"index:idx_book_title_author;size:255;not null;comment:书名"`
	Author       string        `gorm:"index:idx_book_title_author;size:255;not null;comment:作者"`
	Genre        string        `gorm:"index;size:100;not null;comment:类型"`
	ExternalID   *string       `gorm:"uniqueIndex;size:100;comment:外部书目ID"`
	ISBN         *string       `gorm:"column:isbn;size:20;comment:ISBN号"`
	Description  *string       `gorm:"type:text;comment:图书描述"`
	PageCount    *int          `gorm:"comment:页数"`
	ThumbnailURL *string       `gorm:"size:500;comment:封面缩略图URL"`
	Reviews      []ReviewModel `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `gorm:"comment:创建时间"`
	UpdatedAt    time.Time     `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// ReviewModel GORM评论模型
// 设计说明:
// 1. (book_id, user_id)唯一索引:同一用户对同一本书只能有一条评论
// 2. 写入统一使用INSERT ... ON DUPLICATE KEY UPDATE,并发提交收敛为一行
// 3. updated_at创建时为NULL,只在重复提交时由upsert写入
type ReviewModel struct {
	ID         uint       `gorm:"primaryKey"`
	BookID     uint       `gorm:"uniqueIndex:uq_review_book_user,priority:1;not null;comment:图书ID"`
	UserID     uint       `gorm:"uniqueIndex:uq_review_book_user,priority:2;index;not null;comment:用户ID"`
	Rating     int        `gorm:"not null;comment:评分(1-5)"`
	ReviewText *string    `gorm:"type:text;comment:评论内容"`
	CreatedAt  time.Time  `gorm:"comment:创建时间"`
	UpdatedAt  *time.Time `gorm:"autoUpdateTime:false;comment:更新时间"`
}

// TableName 指定表名
func (ReviewModel) TableName() string {
	return "reviews"
}
