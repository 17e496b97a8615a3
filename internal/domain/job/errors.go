package job

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

var (
	// ErrJobNotFound 任务不存在(或已过期)
	ErrJobNotFound = apperrors.New(apperrors.ErrCodeJobNotFound, "任务不存在")

	// ErrUnknownKind 未知任务类型
	ErrUnknownKind = apperrors.New(apperrors.ErrCodeInvalidField, "未知的任务类型")

	// ErrInvalidPayload 任务参数不合法
	ErrInvalidPayload = apperrors.New(apperrors.ErrCodeInvalidField, "任务参数不合法")

	// ErrQueueClosed 队列已关闭
	ErrQueueClosed = apperrors.New(apperrors.ErrCodeQueueError, "任务队列已关闭")

	// ErrQueueFull 队列已满
	ErrQueueFull = apperrors.New(apperrors.ErrCodeQueueError, "任务队列已满")
)
