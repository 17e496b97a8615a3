package job

import (
	"context"
	"encoding/json"
)

// Queue 任务队列接口(至少一次投递)
// 实现:进程内worker池(local)或RabbitMQ(rabbitmq)
type Queue interface {
	// Submit 提交任务,立即返回句柄,任务异步执行
	Submit(ctx context.Context, kind Kind, payload interface{}) (*Handle, error)
}

// Store 任务状态存储接口
// 实现:Redis(带TTL)或内存
type Store interface {
	// Save 保存(覆盖)任务记录
	Save(ctx context.Context, record *Record) error

	// Get 查询任务记录,不存在返回ErrJobNotFound
	Get(ctx context.Context, id string) (*Record, error)

	// ListActive 查询未结束(pending/running)的任务
	ListActive(ctx context.Context) ([]*Record, error)
}

// Executor 任务执行器
// 返回error表示不可恢复的失败(记录为failed),否则结果记录为done
type Executor interface {
	Execute(ctx context.Context, kind Kind, payload json.RawMessage) (*Result, error)
}
