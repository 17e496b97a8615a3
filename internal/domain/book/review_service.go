package book

import (
	"context"
)

// ReviewService 评论领域服务接口
// 核心规则:同一用户对同一本书最多一条评论,重复提交是修改而不是新增
type ReviewService interface {
	// UpsertReview 提交评论(创建或更新)
	// - 图书不存在 → ErrBookNotFound
	// - 评分不在1-5 → ErrInvalidRating
	// - 内容超过5000字符 → ErrReviewTextTooLong
	// 创建和更新返回相同的结构,只能通过ID区分
	UpsertReview(ctx context.Context, bookID, userID uint, rating int, reviewText *string) (*Review, error)

	// DeleteReview 删除评论,不存在时返回false而不是错误
	DeleteReview(ctx context.Context, bookID, userID uint) (bool, error)

	// GetReview 查询评论,不存在时返回(nil, nil)
	GetReview(ctx context.Context, bookID, userID uint) (*Review, error)
}

type reviewService struct {
	bookRepo   Repository
	reviewRepo ReviewRepository
}

// NewReviewService 创建评论领域服务
func NewReviewService(bookRepo Repository, reviewRepo ReviewRepository) ReviewService {
	return &reviewService{
		bookRepo:   bookRepo,
		reviewRepo: reviewRepo,
	}
}

// UpsertReview 提交评论
func (s *reviewService) UpsertReview(ctx context.Context, bookID, userID uint, rating int, reviewText *string) (*Review, error) {
	// 1. 校验
	review, err := NewReview(bookID, userID, rating, reviewText)
	if err != nil {
		return nil, err
	}

	// 2. 图书必须存在(返回"图书不存在"而不是"评论不存在")
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	// 3. 原子upsert
	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview 删除评论
func (s *reviewService) DeleteReview(ctx context.Context, bookID, userID uint) (bool, error) {
	return s.reviewRepo.DeleteByBookAndUser(ctx, bookID, userID)
}

// GetReview 查询评论
func (s *reviewService) GetReview(ctx context.Context, bookID, userID uint) (*Review, error) {
	return s.reviewRepo.FindByBookAndUser(ctx, bookID, userID)
}
