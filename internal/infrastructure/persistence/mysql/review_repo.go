package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/bookreview/internal/domain/book"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// reviewRepository 评论仓储实现
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓储
func NewReviewRepository(db *gorm.DB) book.ReviewRepository {
	return &reviewRepository{db: db}
}

// Upsert 插入或更新评论
//
// MySQL:  INSERT ... ON DUPLICATE KEY UPDATE rating=?, review_text=?, updated_at=?
// SQLite: INSERT ... ON CONFLICT (book_id, user_id) DO UPDATE SET ...
//
// 不做"先查后写",两个并发请求由唯一索引uq_review_book_user收敛为一行。
// 更新分支下LAST_INSERT_ID不可靠,所以写完后按(book_id, user_id)重新读取。
func (r *reviewRepository) Upsert(ctx context.Context, review *book.Review) error {
	db := getDB(ctx, r.db)
	now := time.Now()

	model := &ReviewModel{
		BookID:     review.BookID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		ReviewText: review.ReviewText,
		CreatedAt:  now,
	}

	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"rating":      review.Rating,
			"review_text": review.ReviewText,
			"updated_at":  now,
		}),
	}).Create(model).Error
	if err != nil {
		if isForeignKeyError(err) {
			return book.ErrBookNotFound
		}
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "保存评论失败")
	}

	var saved ReviewModel
	err = db.Where("book_id = ? AND user_id = ?", review.BookID, review.UserID).First(&saved).Error
	if err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "读取评论失败")
	}

	*review = *toReviewEntity(&saved)
	return nil
}

// FindByBookAndUser 查询评论,不存在返回(nil, nil)
func (r *reviewRepository) FindByBookAndUser(ctx context.Context, bookID, userID uint) (*book.Review, error) {
	var model ReviewModel
	err := getDB(ctx, r.db).Where("book_id = ? AND user_id = ?", bookID, userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询评论失败")
	}
	return toReviewEntity(&model), nil
}

// ListByBook 查询某书的全部评论
func (r *reviewRepository) ListByBook(ctx context.Context, bookID uint) ([]*book.Review, error) {
	var models []ReviewModel
	err := getDB(ctx, r.db).Where("book_id = ?", bookID).Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询评论列表失败")
	}

	reviews := make([]*book.Review, len(models))
	for i := range models {
		reviews[i] = toReviewEntity(&models[i])
	}
	return reviews, nil
}

// bookRating 评分查询结果
type bookRating struct {
	BookID uint
	Rating int
}

// RatingsByBookIDs 一次查询多本书的评分(避免列表页N+1查询)
func (r *reviewRepository) RatingsByBookIDs(ctx context.Context, bookIDs []uint) (map[uint][]int, error) {
	result := make(map[uint][]int, len(bookIDs))
	if len(bookIDs) == 0 {
		return result, nil
	}

	var rows []bookRating
	err := getDB(ctx, r.db).
		Model(&ReviewModel{}).
		Select("book_id, rating").
		Where("book_id IN ?", bookIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeDatabaseError, "查询评分失败")
	}

	for _, row := range rows {
		result[row.BookID] = append(result[row.BookID], row.Rating)
	}
	return result, nil
}

// DeleteByBookAndUser 删除评论,返回是否真正删除了一行
func (r *reviewRepository) DeleteByBookAndUser(ctx context.Context, bookID, userID uint) (bool, error) {
	result := getDB(ctx, r.db).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Delete(&ReviewModel{})
	if result.Error != nil {
		return false, apperrors.WrapCode(result.Error, apperrors.ErrCodeDatabaseError, "删除评论失败")
	}
	return result.RowsAffected > 0, nil
}

// toReviewEntity GORM模型 → 领域实体
func toReviewEntity(model *ReviewModel) *book.Review {
	return &book.Review{
		ID:         model.ID,
		BookID:     model.BookID,
		UserID:     model.UserID,
		Rating:     model.Rating,
		ReviewText: model.ReviewText,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
