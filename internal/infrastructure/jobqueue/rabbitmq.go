package jobqueue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/metrics"
)

// RoutingKeyPrefix 路由键前缀，完整路由键为job.<kind>
const RoutingKeyPrefix = "job."

// RoutingKeyAll worker绑定的路由键
const RoutingKeyAll = RoutingKeyPrefix + "*"

// Publisher 消息发布接口（pkg/mq.Publisher实现）
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// Consumer 消息消费接口（pkg/mq.Consumer实现）
type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
}

// message 投递到RabbitMQ的任务消息
type message struct {
	ID      string          `json:"id"`
	Kind    job.Kind        `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RabbitQueue 基于RabbitMQ的任务队列（API进程侧）
type RabbitQueue struct {
	store     job.Store
	publisher Publisher
	log       logrus.FieldLogger
}

// NewRabbitQueue 创建RabbitMQ队列
func NewRabbitQueue(store job.Store, publisher Publisher, log logrus.FieldLogger) *RabbitQueue {
	return &RabbitQueue{
		store:     store,
		publisher: publisher,
		log:       log.WithField("component", "jobqueue"),
	}
}

// Submit 先写pending状态再发布消息
func (q *RabbitQueue) Submit(ctx context.Context, kind job.Kind, payload interface{}) (*job.Handle, error) {
	record, err := job.NewRecord(kind, payload)
	if err != nil {
		return nil, err
	}

	if err := q.store.Save(ctx, record); err != nil {
		return nil, err
	}

	msg := message{ID: record.ID, Kind: record.Kind, Payload: record.Payload}
	if err := q.publisher.Publish(ctx, RoutingKeyPrefix+string(kind), msg); err != nil {
		record.MarkFailed(err, record.CreatedAt)
		_ = q.store.Save(ctx, record)
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeQueueError, "任务投递失败")
	}

	metrics.IncCounterVec(metrics.JobsSubmittedTotal, map[string]string{"kind": string(kind)})
	q.log.WithFields(logrus.Fields{"task_id": record.ID, "kind": kind}).Info("任务已投递")
	return job.HandleOf(record), nil
}

// Worker RabbitMQ任务消费者（cmd/worker进程）
type Worker struct {
	consumer Consumer
	store    job.Store
	runner   *Runner
	log      logrus.FieldLogger
}

// NewWorker 创建worker
func NewWorker(consumer Consumer, store job.Store, runner *Runner, log logrus.FieldLogger) *Worker {
	return &Worker{
		consumer: consumer,
		store:    store,
		runner:   runner,
		log:      log.WithField("component", "jobworker"),
	}
}

// Run 阻塞消费直到ctx取消
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Consume(ctx, w.Handle)
}

// Handle 处理一条任务消息
//
// 至少一次投递：已结束的任务直接确认，不重复执行。
// 消息格式错误无法重试，确认后丢弃；只有状态存储失败才返回error让消息重新入队。
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var msg message
	if err := json.Unmarshal(body, &msg); err != nil || msg.ID == "" {
		w.log.WithField("body", string(body)).Warn("无法解析的任务消息，已丢弃")
		return nil
	}
	log := w.log.WithFields(logrus.Fields{"task_id": msg.ID, "kind": msg.Kind})

	record, err := w.store.Get(ctx, msg.ID)
	switch {
	case errors.Is(err, job.ErrJobNotFound):
		// 状态已过期，按消息内容重建
		record = &job.Record{ID: msg.ID, Kind: msg.Kind, State: job.StatePending, Payload: msg.Payload}
	case err != nil:
		return err
	case !record.State.Active():
		log.WithField("state", record.State).Info("任务已结束，跳过重复投递")
		return nil
	}

	if !record.Kind.Valid() {
		record.MarkFailed(job.ErrUnknownKind, record.CreatedAt)
		return w.store.Save(ctx, record)
	}

	return w.runner.Run(ctx, record)
}
