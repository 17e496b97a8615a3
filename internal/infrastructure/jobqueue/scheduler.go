package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
)

// Schedule 定时提交的任务
type Schedule struct {
	Kind     job.Kind
	Interval time.Duration
}

// Scheduler 周期任务调度器
// 每个Schedule一个ticker，到点只提交任务，执行交给队列
type Scheduler struct {
	queue     job.Queue
	schedules []Schedule
	log       logrus.FieldLogger
	wg        sync.WaitGroup
}

// NewScheduler 创建调度器，Interval<=0的项被忽略
func NewScheduler(queue job.Queue, schedules []Schedule, log logrus.FieldLogger) *Scheduler {
	enabled := make([]Schedule, 0, len(schedules))
	for _, s := range schedules {
		if s.Interval > 0 {
			enabled = append(enabled, s)
		}
	}
	return &Scheduler{
		queue:     queue,
		schedules: enabled,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start 启动调度，ctx取消后停止
func (s *Scheduler) Start(ctx context.Context) {
	for _, schedule := range s.schedules {
		s.wg.Add(1)
		go s.loop(ctx, schedule)
	}
}

// Wait 等待所有调度协程退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, schedule Schedule) {
	defer s.wg.Done()

	ticker := time.NewTicker(schedule.Interval)
	defer ticker.Stop()

	log := s.log.WithFields(logrus.Fields{"kind": schedule.Kind, "interval": schedule.Interval.String()})
	log.Info("周期任务已启动")

	for {
		select {
		case <-ctx.Done():
			log.Info("周期任务已停止")
			return
		case <-ticker.C:
			handle, err := s.queue.Submit(ctx, schedule.Kind, nil)
			if err != nil {
				log.WithError(err).Error("周期任务提交失败")
				continue
			}
			log.WithField("task_id", handle.ID).Info("周期任务已提交")
		}
	}
}
