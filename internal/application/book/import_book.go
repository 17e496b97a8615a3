package book

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// ImportBookUseCase 从外部书目导入图书
// 设计说明:
// 1. 不在事务中做外部请求,external_id唯一索引兜底并发导入
// 2. 导入成功后提交notify任务,提交失败只记日志,不影响导入结果
type ImportBookUseCase struct {
	bookService book.Service
	queue       job.Queue
	log         logrus.FieldLogger
}

// NewImportBookUseCase 创建导入用例
func NewImportBookUseCase(bookService book.Service, queue job.Queue, log logrus.FieldLogger) *ImportBookUseCase {
	return &ImportBookUseCase{
		bookService: bookService,
		queue:       queue,
		log:         log,
	}
}

// ImportBookRequest 导入请求
type ImportBookRequest struct {
	ExternalID string
	Genre      string
}

// Execute 执行导入
func (uc *ImportBookUseCase) Execute(ctx context.Context, req ImportBookRequest) (item *BookItem, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ImportBook")
	defer tracing.End(span, &err)

	b, err := uc.bookService.ImportBook(ctx, req.ExternalID, req.Genre)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, uc.log).WithFields(logrus.Fields{
		"book_id":     b.ID,
		"external_id": req.ExternalID,
	})
	log.Info("图书已导入")

	if uc.queue != nil {
		payload := job.NotifyPayload{BookTitle: b.Title, BookAuthor: b.Author}
		if _, err := uc.queue.Submit(ctx, job.KindNotify, payload); err != nil {
			log.WithError(err).Warn("提交新书通知任务失败")
		}
	}

	result := ToBookItem(b, nil)
	return &result, nil
}
