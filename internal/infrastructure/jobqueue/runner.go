// Package jobqueue 后台任务队列实现
//
// 两种后端：
//   - local：进程内worker池，Submit写入缓冲channel
//   - rabbitmq：Submit发布到topic exchange，cmd/worker消费执行
//
// 两种后端共用Runner执行任务并维护状态：pending → running → done | failed
package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const tracerName = "jobqueue"

// Runner 执行单个任务并记录状态
type Runner struct {
	store    job.Store
	executor job.Executor
	log      logrus.FieldLogger
}

// NewRunner 创建任务执行器
func NewRunner(store job.Store, executor job.Executor, log logrus.FieldLogger) *Runner {
	return &Runner{store: store, executor: executor, log: log}
}

// Run 执行任务
// 返回error仅表示状态存储失败，任务本身的失败记录在record中
func (r *Runner) Run(ctx context.Context, record *job.Record) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "job."+string(record.Kind))
	defer tracing.End(span, &err)

	log := r.log.WithFields(logrus.Fields{"task_id": record.ID, "kind": record.Kind})

	start := time.Now()
	record.MarkRunning(start)
	if err := r.store.Save(ctx, record); err != nil {
		return err
	}

	metrics.IncGauge(metrics.JobsInProgress)
	result, execErr := r.execute(ctx, record)
	metrics.DecGauge(metrics.JobsInProgress)

	finished := time.Now()
	if execErr != nil {
		record.MarkFailed(execErr, finished)
		log.WithError(execErr).Error("任务执行失败")
	} else {
		record.MarkDone(result, finished)
		log.WithFields(logrus.Fields{
			"status":   result.Status,
			"duration": finished.Sub(start).String(),
		}).Info("任务执行完成")
	}

	metrics.IncCounterVec(metrics.JobExecutionsTotal, map[string]string{"kind": string(record.Kind), "state": string(record.State)})
	metrics.ObserveHistogramVec(metrics.JobDuration, map[string]string{"kind": string(record.Kind)}, finished.Sub(start).Seconds())

	return r.store.Save(ctx, record)
}

// execute panic转换为失败，避免拖垮worker
func (r *Runner) execute(ctx context.Context, record *job.Record) (result *job.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("任务panic: %v", p)
		}
	}()

	result, err = r.executor.Execute(ctx, record.Kind, record.Payload)
	if err == nil && result == nil {
		result = &job.Result{Status: job.ResultSuccess}
	}
	return result, err
}
