package review

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const tracerName = "application/review"

// TxManager 事务管理器（mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UpsertReviewUseCase 提交评论用例
// 同一用户重复提交是修改,返回的结构与创建相同
type UpsertReviewUseCase struct {
	reviewService book.ReviewService
	txManager     TxManager
	log           logrus.FieldLogger
}

// NewUpsertReviewUseCase 创建提交评论用例
func NewUpsertReviewUseCase(reviewService book.ReviewService, txManager TxManager, log logrus.FieldLogger) *UpsertReviewUseCase {
	return &UpsertReviewUseCase{
		reviewService: reviewService,
		txManager:     txManager,
		log:           log,
	}
}

// UpsertReviewRequest 提交评论请求
type UpsertReviewRequest struct {
	BookID     uint
	UserID     uint // 从JWT中提取
	Rating     int
	ReviewText *string
}

// Execute 执行提交
func (uc *UpsertReviewUseCase) Execute(ctx context.Context, req UpsertReviewRequest) (item *appbook.ReviewItem, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpsertReview")
	defer tracing.End(span, &err)

	var review *book.Review
	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		var err error
		review, err = uc.reviewService.UpsertReview(ctx, req.BookID, req.UserID, req.Rating, req.ReviewText)
		return err
	})
	if err != nil {
		metrics.IncCounterVec(metrics.ReviewUpsertsTotal, map[string]string{"result": "failure"})
		return nil, err
	}
	metrics.IncCounterVec(metrics.ReviewUpsertsTotal, map[string]string{"result": "success"})

	logger.FromContext(ctx, uc.log).WithFields(logrus.Fields{
		"book_id":   review.BookID,
		"review_id": review.ID,
		"rating":    review.Rating,
	}).Info("评论已保存")

	result := appbook.ToReviewItem(review)
	return &result, nil
}

// DeleteReviewUseCase 删除评论用例
// 评论不存在也视为成功(幂等)
type DeleteReviewUseCase struct {
	reviewService book.ReviewService
	txManager     TxManager
}

// NewDeleteReviewUseCase 创建删除评论用例
func NewDeleteReviewUseCase(reviewService book.ReviewService, txManager TxManager) *DeleteReviewUseCase {
	return &DeleteReviewUseCase{
		reviewService: reviewService,
		txManager:     txManager,
	}
}

// Execute 删除当前用户对该书的评论,返回是否真正删除
func (uc *DeleteReviewUseCase) Execute(ctx context.Context, bookID, userID uint) (deleted bool, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DeleteReview")
	defer tracing.End(span, &err)

	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = uc.reviewService.DeleteReview(ctx, bookID, userID)
		return err
	})
	if err != nil {
		return false, err
	}

	metrics.IncCounterVec(metrics.ReviewDeletesTotal, map[string]string{"deleted": strconv.FormatBool(deleted)})
	return deleted, nil
}

// GetMyReviewUseCase 查询当前用户对某书的评论
type GetMyReviewUseCase struct {
	reviewService book.ReviewService
}

// NewGetMyReviewUseCase 创建查询用例
func NewGetMyReviewUseCase(reviewService book.ReviewService) *GetMyReviewUseCase {
	return &GetMyReviewUseCase{reviewService: reviewService}
}

// Execute 不存在时返回(nil, nil)
func (uc *GetMyReviewUseCase) Execute(ctx context.Context, bookID, userID uint) (*appbook.ReviewItem, error) {
	review, err := uc.reviewService.GetReview(ctx, bookID, userID)
	if err != nil || review == nil {
		return nil, err
	}
	result := appbook.ToReviewItem(review)
	return &result, nil
}
