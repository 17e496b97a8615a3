package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookreview/internal/domain/job"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

const activeJobsKey = "jobs:active"

// JobStore 任务状态存储（Redis）
// Key设计：
//   - job:{id}      任务记录JSON，TTL=jobs.result_ttl
//   - jobs:active   未结束任务ID集合
//
// rabbitmq模式下API进程写pending、worker进程写running/done，通过Redis共享状态
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJobStore 创建任务状态存储
func NewJobStore(client *redis.Client, ttl time.Duration) *JobStore {
	return &JobStore{client: client, ttl: ttl}
}

// Save 保存任务记录并维护活跃集合
func (s *JobStore) Save(ctx context.Context, record *job.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "任务记录序列化失败")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(record.ID), data, s.ttl)
		if record.State.Active() {
			pipe.SAdd(ctx, activeJobsKey, record.ID)
		} else {
			pipe.SRem(ctx, activeJobsKey, record.ID)
		}
		return nil
	})
	if err != nil {
		return apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "保存任务状态失败")
	}
	return nil
}

// Get 查询任务记录
func (s *JobStore) Get(ctx context.Context, id string) (*job.Record, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, job.ErrJobNotFound
		}
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "查询任务状态失败")
	}

	var record job.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, apperrors.Wrap(err, "任务记录反序列化失败")
	}
	return &record, nil
}

// ListActive 查询未结束的任务（已过期的ID顺手从集合中清理）
func (s *JobStore) ListActive(ctx context.Context) ([]*job.Record, error) {
	ids, err := s.client.SMembers(ctx, activeJobsKey).Result()
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "查询活跃任务失败")
	}
	if len(ids) == 0 {
		return []*job.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "查询活跃任务失败")
	}

	records := make([]*job.Record, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var record job.Record
		if err := json.Unmarshal([]byte(str), &record); err != nil || !record.State.Active() {
			stale = append(stale, ids[i])
			continue
		}
		records = append(records, &record)
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, activeJobsKey, stale...).Err()
	}

	job.SortByCreatedAt(records)
	return records, nil
}

func jobKey(id string) string {
	return "job:" + id
}
