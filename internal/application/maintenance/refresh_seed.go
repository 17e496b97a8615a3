package maintenance

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// RefreshFromSeed 用种子列表对齐图书
// 业务规则:
// 1. 按(书名, 作者)查找,不存在则创建,存在则更新类型
// 2. 从不删除
// 3. 不合法的条目计为skipped,不影响其他条目
// 4. 全部在一个事务中,存储错误时整体回滚,结果状态为error
func (r *Runner) RefreshFromSeed(ctx context.Context) (result *job.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RefreshFromSeed")
	defer tracing.End(span, &err)

	entries, err := LoadSeed(r.opts.SeedFile)
	if err != nil {
		return nil, err
	}

	var created, updated, unchanged, skipped int64
	txErr := r.txManager.Transaction(ctx, func(ctx context.Context) error {
		created, updated, unchanged, skipped = 0, 0, 0, 0

		for _, entry := range entries {
			candidate, err := book.NewBook(entry.Title, entry.Author, entry.Genre)
			if apperrors.IsValidation(err) {
				r.log.WithError(err).WithField("title", entry.Title).Warn("种子条目不合法，跳过")
				skipped++
				continue
			}
			if err != nil {
				return err
			}

			existing, err := r.bookRepo.FindByTitleAuthor(ctx, candidate.Title, candidate.Author)
			switch {
			case apperrors.IsNotFound(err):
				if err := r.bookRepo.Create(ctx, candidate); err != nil {
					return err
				}
				created++
				continue
			case err != nil:
				return err
			}

			changed, err := existing.ChangeGenre(candidate.Genre)
			if err != nil {
				return err
			}
			if !changed {
				unchanged++
				continue
			}
			if err := r.bookRepo.Update(ctx, existing); err != nil {
				return err
			}
			updated++
		}
		return nil
	})

	if txErr != nil {
		r.log.WithError(txErr).Error("种子刷新失败，已回滚")
		return &job.Result{
			Status:  job.ResultError,
			Message: txErr.Error(),
			Counts:  map[string]int64{"created": 0, "updated": 0, "skipped": skipped},
		}, nil
	}

	r.log.WithFields(logrus.Fields{
		"created": created, "updated": updated, "unchanged": unchanged, "skipped": skipped,
	}).Info("种子刷新完成")

	status := job.ResultSuccess
	if skipped > 0 {
		status = job.ResultPartial
	}
	return &job.Result{
		Status:  status,
		Message: "种子刷新完成",
		Counts: map[string]int64{
			"total":     int64(len(entries)),
			"created":   created,
			"updated":   updated,
			"unchanged": unchanged,
			"skipped":   skipped,
		},
	}, nil
}
