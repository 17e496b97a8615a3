package mysql

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookreview/internal/domain/book"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如external_id重复),转换为业务错误
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 创建图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return book.ErrExternalIDExists
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "创建图书失败")
	}

	// 回填自增ID
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByExternalID 根据外部书目ID查找图书
func (r *bookRepository) FindByExternalID(ctx context.Context, externalID string) (*book.Book, error) {
	var model BookModel
	if err := getDB(ctx, r.db).Where("external_id = ?", externalID).First(&model).Error; err != nil {
		return nil, notFoundOr(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// FindByTitleAuthor 根据书名+作者查找图书
func (r *bookRepository) FindByTitleAuthor(ctx context.Context, title, author string) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).
		Where("title = ? AND author = ?", title, author).
		Order("id ASC").
		First(&model).Error
	if err != nil {
		return nil, notFoundOr(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Update 更新图书信息
// 显式Select所有可变列,nil指针也会写成NULL
func (r *bookRepository) Update(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	model.UpdatedAt = time.Now()

	err := getDB(ctx, r.db).
		Model(&BookModel{ID: b.ID}).
		Select("title", "author", "genre", "external_id", "isbn", "description", "page_count", "thumbnail_url", "updated_at").
		Updates(model).Error
	if err != nil {
		if isDuplicateError(err) {
			return book.ErrExternalIDExists
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "更新图书失败")
	}

	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 删除图书(物理删除,reviews由外键ON DELETE CASCADE级联删除)
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&BookModel{}, id)
	if result.Error != nil {
		return apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "删除图书失败")
	}
	if result.RowsAffected == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// List 分页查询图书列表
// 按ID升序,搜索不区分大小写(书名或作者包含关键词)
func (r *bookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, error) {
	query := getDB(ctx, r.db).Model(&BookModel{})

	if params.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? ESCAPE '"+likeEscapeChar+"' OR LOWER(author) LIKE ? ESCAPE '"+likeEscapeChar+"'",
			pattern, pattern,
		)
	}

	var models []BookModel
	err := query.Order("id ASC").Offset(params.Offset).Limit(params.Limit).Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书列表失败")
	}
	return toBookEntities(models), nil
}

// Count 图书总数
func (r *bookRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := getDB(ctx, r.db).Model(&BookModel{}).Count(&total).Error; err != nil {
		return 0, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询图书总数失败")
	}
	return total, nil
}

// ListMissingExternalID 查询尚未关联外部书目的图书(按id游标分页)
func (r *bookRepository) ListMissingExternalID(ctx context.Context, afterID uint, limit int) ([]*book.Book, error) {
	var models []BookModel
	err := getDB(ctx, r.db).
		Where("id > ?", afterID).
		Where("external_id IS NULL OR external_id = ''").
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询待补全图书失败")
	}
	return toBookEntities(models), nil
}

// genreCount 类型分布查询结果
type genreCount struct {
	Genre string
	Total int64
}

// Stats 只读统计
func (r *bookRepository) Stats(ctx context.Context) (*book.Stats, error) {
	db := getDB(ctx, r.db)
	stats := &book.Stats{GenreDistribution: map[string]int64{}}

	if err := db.Model(&BookModel{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "统计图书失败")
	}
	if err := db.Model(&ReviewModel{}).Count(&stats.TotalReviews).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "统计评论失败")
	}
	if err := db.Model(&ReviewModel{}).Distinct("book_id").Count(&stats.BooksWithReviews).Error; err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "统计有评论的图书失败")
	}
	err := db.Model(&BookModel{}).
		Where("external_id IS NOT NULL AND external_id <> ''").
		Count(&stats.BooksWithExternalID).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "统计外部书目关联失败")
	}

	var genres []genreCount
	err = db.Model(&BookModel{}).
		Select("genre, COUNT(*) AS total").
		Group("genre").
		Scan(&genres).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "统计类型分布失败")
	}
	for _, g := range genres {
		stats.GenreDistribution[g.Genre] = g.Total
	}

	stats.BooksWithoutReviews = stats.TotalBooks - stats.BooksWithReviews
	stats.BooksWithoutExternalID = stats.TotalBooks - stats.BooksWithExternalID
	if stats.TotalBooks > 0 {
		avg := float64(stats.TotalReviews) / float64(stats.TotalBooks)
		stats.AverageReviewsPerBook = math.Round(avg*100) / 100
	}
	return stats, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Genre:        b.Genre,
		ExternalID:   b.ExternalID,
		ISBN:         b.ISBN,
		Description:  b.Description,
		PageCount:    b.PageCount,
		ThumbnailURL: b.ThumbnailURL,
	}
}

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:           model.ID,
		Title:        model.Title,
		Author:       model.Author,
		Genre:        model.Genre,
		ExternalID:   model.ExternalID,
		ISBN:         model.ISBN,
		Description:  model.Description,
		PageCount:    model.PageCount,
		ThumbnailURL: model.ThumbnailURL,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toBookEntities(models []BookModel) []*book.Book {
	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books
}

// notFoundOr gorm.ErrRecordNotFound → ErrBookNotFound,其他错误包装为数据库错误
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.ErrBookNotFound
	}
	return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, message)
}
