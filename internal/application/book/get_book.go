package book

import (
	"context"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// GetBookUseCase 图书详情(含评论)查询用例
type GetBookUseCase struct {
	bookService book.Service
	txManager   TxManager
}

// NewGetBookUseCase 创建详情查询用例
func NewGetBookUseCase(bookService book.Service, txManager TxManager) *GetBookUseCase {
	return &GetBookUseCase{
		bookService: bookService,
		txManager:   txManager,
	}
}

// Execute 查询图书及全部评论,不存在返回ErrBookNotFound
func (uc *GetBookUseCase) Execute(ctx context.Context, bookID uint) (detail *BookDetail, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "GetBook")
	defer tracing.End(span, &err)

	var result *book.BookWithReviews
	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = uc.bookService.GetBookWithReviews(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	reviews := make([]ReviewItem, len(result.Reviews))
	for i, r := range result.Reviews {
		reviews[i] = ToReviewItem(r)
	}
	return &BookDetail{
		BookItem: ToBookItem(result.Book, result.AverageRating),
		Reviews:  reviews,
	}, nil
}
