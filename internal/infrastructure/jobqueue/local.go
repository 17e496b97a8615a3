package jobqueue

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/pkg/metrics"
)

// LocalQueue 进程内worker池
type LocalQueue struct {
	store   job.Store
	runner  *Runner
	workers int
	jobs    chan *job.Record
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocalQueue 创建进程内队列，需调用Start启动worker
func NewLocalQueue(store job.Store, runner *Runner, workers, queueSize int, log logrus.FieldLogger) *LocalQueue {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &LocalQueue{
		store:   store,
		runner:  runner,
		workers: workers,
		jobs:    make(chan *job.Record, queueSize),
		log:     log.WithField("component", "jobqueue"),
	}
}

// Start 启动worker，ctx取消后正在执行的任务会收到取消信号
func (q *LocalQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
	q.log.WithField("workers", q.workers).Info("任务worker已启动")
}

func (q *LocalQueue) work(ctx context.Context, id int) {
	defer q.wg.Done()

	for record := range q.jobs {
		if err := q.runner.Run(ctx, record); err != nil {
			q.log.WithError(err).WithFields(logrus.Fields{"worker": id, "task_id": record.ID}).Error("保存任务状态失败")
		}
	}
}

// Submit 提交任务
func (q *LocalQueue) Submit(ctx context.Context, kind job.Kind, payload interface{}) (*job.Handle, error) {
	record, err := job.NewRecord(kind, payload)
	if err != nil {
		return nil, err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, job.ErrQueueClosed
	}

	if err := q.store.Save(ctx, record); err != nil {
		return nil, err
	}

	// 入队后record归worker所有
	handle := job.HandleOf(record)
	select {
	case q.jobs <- record:
	default:
		// 队列满时直接拒绝，状态记为失败
		record.MarkFailed(job.ErrQueueFull, record.CreatedAt)
		_ = q.store.Save(ctx, record)
		return nil, job.ErrQueueFull
	}

	metrics.IncCounterVec(metrics.JobsSubmittedTotal, map[string]string{"kind": string(kind)})
	q.log.WithFields(logrus.Fields{"task_id": record.ID, "kind": kind}).Info("任务已提交")
	return handle, nil
}

// Shutdown 停止接收新任务，等待已入队任务执行完毕（或ctx超时）
func (q *LocalQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
