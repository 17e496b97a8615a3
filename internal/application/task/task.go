// Package task 后台任务提交与查询用例
package task

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/pkg/logger"
)

// SubmitUseCase 提交后台任务
type SubmitUseCase struct {
	queue job.Queue
	log   logrus.FieldLogger
}

// NewSubmitUseCase 创建提交用例
func NewSubmitUseCase(queue job.Queue, log logrus.FieldLogger) *SubmitUseCase {
	return &SubmitUseCase{queue: queue, log: log}
}

// Execute 提交无参数任务
func (uc *SubmitUseCase) Execute(ctx context.Context, kind job.Kind) (*job.Handle, error) {
	return uc.submit(ctx, kind, nil)
}

// NotifyNewBook 提交新书通知任务,书名和作者不能为空
func (uc *SubmitUseCase) NotifyNewBook(ctx context.Context, title, author string) (*job.Handle, error) {
	payload := job.NotifyPayload{
		BookTitle:  strings.TrimSpace(title),
		BookAuthor: strings.TrimSpace(author),
	}
	if payload.BookTitle == "" || payload.BookAuthor == "" {
		return nil, job.ErrInvalidPayload
	}
	return uc.submit(ctx, job.KindNotify, payload)
}

func (uc *SubmitUseCase) submit(ctx context.Context, kind job.Kind, payload interface{}) (*job.Handle, error) {
	handle, err := uc.queue.Submit(ctx, kind, payload)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, uc.log).WithFields(logrus.Fields{"task_id": handle.ID, "kind": kind}).Info("后台任务已提交")
	return handle, nil
}

// StatusUseCase 查询任务状态
type StatusUseCase struct {
	store job.Store
}

// NewStatusUseCase 创建查询用例
func NewStatusUseCase(store job.Store) *StatusUseCase {
	return &StatusUseCase{store: store}
}

// Get 查询单个任务,不存在或已过期返回ErrJobNotFound
func (uc *StatusUseCase) Get(ctx context.Context, id string) (*job.Record, error) {
	return uc.store.Get(ctx, id)
}

// ListActive 查询未结束的任务
func (uc *StatusUseCase) ListActive(ctx context.Context) ([]*job.Record, error) {
	return uc.store.ListActive(ctx)
}
