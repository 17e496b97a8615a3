package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// NewClient 创建Redis客户端并Ping
//
// 同一个客户端承载两类数据：
//   - 登录会话和Token黑名单（SessionStore）
//   - 后台任务状态 job:{id} 及活跃任务集合（JobStore），rabbitmq模式下API和worker共享
func NewClient(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.WrapCode(err, apperrors.ErrCodeRedisError, "Redis连接失败")
	}

	log.WithFields(logrus.Fields{
		"addr": cfg.Redis.Addr(),
		"db":   cfg.Redis.DB,
	}).Info("Redis连接成功，用于会话和任务状态")
	return client, nil
}
