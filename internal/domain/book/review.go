package book

import (
	"time"
	"unicode/utf8"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxReviewTextLen = 5000
)

// Review 评论实体(属于Book聚合)
// 业务规则:
// 1. 同一(BookID, UserID)最多一条评论,由数据库唯一索引保证
// 2. 重复提交只修改Rating和ReviewText,ID/BookID/UserID/CreatedAt不变
// 3. UpdatedAt创建时为空,之后每次提交都会刷新
type Review struct {
	ID         uint
	BookID     uint
	UserID     uint
	Rating     int
	ReviewText *string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// NewReview 创建评论(未持久化)
func NewReview(bookID, userID uint, rating int, reviewText *string) (*Review, error) {
	if err := ValidateReview(rating, reviewText); err != nil {
		return nil, err
	}
	return &Review{
		BookID:     bookID,
		UserID:     userID,
		Rating:     rating,
		ReviewText: reviewText,
	}, nil
}

// ValidateReview 校验评分和评论内容
func ValidateReview(rating int, reviewText *string) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if reviewText != nil && utf8.RuneCountInString(*reviewText) > MaxReviewTextLen {
		return ErrReviewTextTooLong
	}
	return nil
}
