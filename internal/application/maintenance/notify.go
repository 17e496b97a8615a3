package maintenance

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
)

// Notify 新书通知,目前只写一条结构化日志
func (r *Runner) Notify(ctx context.Context, p job.NotifyPayload) (*job.Result, error) {
	r.log.WithFields(logrus.Fields{
		"event":       "new_book",
		"book_title":  p.BookTitle,
		"book_author": p.BookAuthor,
	}).Info("新书通知")

	return &job.Result{
		Status:  job.ResultSuccess,
		Message: "已通知: " + p.BookTitle,
	}, nil
}
