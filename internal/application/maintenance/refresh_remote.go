package maintenance

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// remoteMatch 第二阶段查到的外部信息
type remoteMatch struct {
	bookID   uint
	metadata *book.Metadata
}

// remoteCounts 补全计数
type remoteCounts struct {
	processed, enriched, failed, notFound int64
}

// RefreshFromRemote 从外部书目补全图书信息
// 按id游标分批遍历所有尚未关联外部书目的图书(每批RemoteBatchSize本),
// 每批分三个阶段,外部请求期间不持有事务:
// 1. 读取id大于游标的一批待补全图书
// 2. 逐本查询外部书目,单本失败计数后继续
// 3. 一个短事务合并结果:只填充原来为空的字段;external_id已被其他图书占用时计为失败
func (r *Runner) RefreshFromRemote(ctx context.Context) (result *job.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RefreshFromRemote")
	defer tracing.End(span, &err)

	var total remoteCounts
	var afterID uint
	for {
		// 阶段1
		candidates, err := r.bookRepo.ListMissingExternalID(ctx, afterID, r.opts.RemoteBatchSize)
		if err != nil {
			return &job.Result{Status: job.ResultError, Message: err.Error(), Counts: total.toMap()}, nil
		}
		if len(candidates) == 0 {
			break
		}
		afterID = candidates[len(candidates)-1].ID

		batch, err := r.refreshBatch(ctx, candidates)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.WithError(err).WithField("after_id", afterID).Error("外部补全写入失败，已回滚")
			total.processed += batch.processed
			total.failed += batch.processed
			return &job.Result{Status: job.ResultError, Message: err.Error(), Counts: total.toMap()}, nil
		}
		total.add(batch)

		if len(candidates) < r.opts.RemoteBatchSize {
			break
		}
	}

	if total.processed == 0 {
		return &job.Result{
			Status:  job.ResultSuccess,
			Message: "没有需要补全的图书",
			Counts:  map[string]int64{"processed": 0, "enriched": 0, "failed": 0},
		}, nil
	}

	r.log.WithFields(logrus.Fields{
		"processed": total.processed, "enriched": total.enriched, "failed": total.failed, "not_found": total.notFound,
	}).Info("外部补全完成")

	status := job.ResultSuccess
	if total.failed > 0 {
		status = job.ResultPartial
	}
	return &job.Result{Status: status, Message: "外部补全完成", Counts: total.toMap()}, nil
}

// refreshBatch 处理一批图书(阶段2+阶段3),返回error时该批写入已回滚
func (r *Runner) refreshBatch(ctx context.Context, candidates []*book.Book) (remoteCounts, error) {
	counts := remoteCounts{processed: int64(len(candidates))}

	// 阶段2
	matches := make([]remoteMatch, 0, len(candidates))
	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		md, err := r.lookup.FindBest(ctx, b.Title, b.Author)
		if err != nil {
			r.log.WithError(err).WithField("book_id", b.ID).Warn("外部书目查询失败")
			counts.failed++
			continue
		}
		if md == nil || md.ExternalID == "" {
			counts.notFound++
			continue
		}
		matches = append(matches, remoteMatch{bookID: b.ID, metadata: md})
	}

	// 阶段3
	var enriched, conflicts int64
	err := r.txManager.Transaction(ctx, func(ctx context.Context) error {
		enriched, conflicts = 0, 0
		for _, m := range matches {
			ok, err := r.merge(ctx, m)
			if err != nil {
				return err
			}
			if ok {
				enriched++
			} else {
				conflicts++
			}
		}
		return nil
	})
	if err != nil {
		return counts, err
	}

	counts.enriched = enriched
	counts.failed += conflicts
	return counts, nil
}

func (c *remoteCounts) add(o remoteCounts) {
	c.processed += o.processed
	c.enriched += o.enriched
	c.failed += o.failed
	c.notFound += o.notFound
}

func (c remoteCounts) toMap() map[string]int64 {
	return map[string]int64{
		"processed": c.processed,
		"enriched":  c.enriched,
		"failed":    c.failed,
		"not_found": c.notFound,
	}
}

// merge 合并单本图书,返回false表示因冲突未合并
func (r *Runner) merge(ctx context.Context, m remoteMatch) (bool, error) {
	b, err := r.bookRepo.FindByID(ctx, m.bookID)
	if apperrors.IsNotFound(err) {
		// 阶段2期间被删除
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if b.HasExternalID() {
		// 阶段2期间已被导入/补全,不覆盖
		return false, nil
	}

	owner, err := r.bookRepo.FindByExternalID(ctx, m.metadata.ExternalID)
	switch {
	case err == nil && owner.ID != b.ID:
		r.log.WithFields(logrus.Fields{
			"book_id":     b.ID,
			"external_id": m.metadata.ExternalID,
			"owner_id":    owner.ID,
		}).Warn("外部书目ID已被其他图书占用")
		return false, nil
	case err != nil && !apperrors.IsNotFound(err):
		return false, err
	}

	externalID := m.metadata.ExternalID
	if len([]rune(externalID)) > book.MaxExternalIDLen {
		return false, nil
	}
	b.ExternalID = &externalID
	b.MergeMetadata(m.metadata)

	err = r.bookRepo.Update(ctx, b)
	if apperrors.IsConflict(err) {
		// 阶段2期间external_id被其他图书占用
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
