// Package maintenance 后台维护任务
//
// Runner实现job.Executor,由jobqueue的worker调用:
//   - refresh_seed:按种子列表创建/更新图书,单事务
//   - refresh_remote:从外部书目补全图书信息,外部请求不在事务中
//   - compute_statistics:只读统计
//   - notify:新书通知,只写一条日志
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
)

const tracerName = "application/maintenance"

// DefaultRemoteBatchSize refresh_remote每批处理的图书数
const DefaultRemoteBatchSize = 50

// TxManager 事务管理器（mysql.TxManager实现）
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Options Runner配置
type Options struct {
	SeedFile        string // 为空时使用内置种子列表
	RemoteBatchSize int
}

// Runner 维护任务执行器
type Runner struct {
	bookRepo  book.Repository
	lookup    book.MetadataLookup
	txManager TxManager
	opts      Options
	log       logrus.FieldLogger
}

// NewRunner 创建维护任务执行器
func NewRunner(bookRepo book.Repository, lookup book.MetadataLookup, txManager TxManager, opts Options, log logrus.FieldLogger) *Runner {
	if opts.RemoteBatchSize <= 0 {
		opts.RemoteBatchSize = DefaultRemoteBatchSize
	}
	return &Runner{
		bookRepo:  bookRepo,
		lookup:    lookup,
		txManager: txManager,
		opts:      opts,
		log:       log.WithField("component", "maintenance"),
	}
}

// Execute 按任务类型分发
func (r *Runner) Execute(ctx context.Context, kind job.Kind, payload json.RawMessage) (*job.Result, error) {
	switch kind {
	case job.KindRefreshSeed:
		return r.RefreshFromSeed(ctx)
	case job.KindRefreshRemote:
		return r.RefreshFromRemote(ctx)
	case job.KindComputeStatistics:
		return r.ComputeStatistics(ctx)
	case job.KindNotify:
		var p job.NotifyPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("通知任务参数不合法: %w", err)
		}
		return r.Notify(ctx, p)
	default:
		return nil, job.ErrUnknownKind
	}
}

// SeedIfEmpty 库中没有图书时加载种子列表(启动时调用)
func (r *Runner) SeedIfEmpty(ctx context.Context) (*job.Result, error) {
	total, err := r.bookRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total > 0 {
		r.log.WithField("total_books", total).Info("数据库已有图书，跳过种子加载")
		return &job.Result{Status: job.ResultSuccess, Message: "数据库已有图书，跳过"}, nil
	}
	return r.RefreshFromSeed(ctx)
}
