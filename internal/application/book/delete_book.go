package book

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// DeleteBookUseCase 删除图书用例(评论级联删除)
type DeleteBookUseCase struct {
	bookService book.Service
	txManager   TxManager
	log         logrus.FieldLogger
}

// NewDeleteBookUseCase 创建删除用例
func NewDeleteBookUseCase(bookService book.Service, txManager TxManager, log logrus.FieldLogger) *DeleteBookUseCase {
	return &DeleteBookUseCase{
		bookService: bookService,
		txManager:   txManager,
		log:         log,
	}
}

// Execute 删除图书,不存在返回ErrBookNotFound
func (uc *DeleteBookUseCase) Execute(ctx context.Context, bookID uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DeleteBook")
	defer tracing.End(span, &err)

	err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
		return uc.bookService.DeleteBook(ctx, bookID)
	})
	if err != nil {
		return err
	}

	logger.FromContext(ctx, uc.log).WithField("book_id", bookID).Info("图书已删除")
	return nil
}
