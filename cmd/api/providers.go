package main

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/application/maintenance"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/job"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/catalogue/googlebooks"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/jobqueue"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/pkg/jwt"
	"github.com/xiebiao/bookreview/pkg/mq"
)

// 自定义Provider：构造函数参数需要从Config中提取，或者需要返回cleanup

// provideDB 数据库连接，cleanup关闭连接池
func provideDB(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedis Redis连接，cleanup关闭连接
func provideRedis(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideLoginUseCase(
	cfg *config.Config,
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore *redis.SessionStore,
	log logrus.FieldLogger,
) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(userService, jwtManager, sessionStore, cfg.JWT.RefreshTokenExpire, log)
}

func provideGoogleBooks(cfg *config.Config, log logrus.FieldLogger) *googlebooks.Client {
	return googlebooks.NewClient(cfg.GoogleBooks, log)
}

// provideJobStore 任务状态存储：redis（多进程共享）或memory（单进程）
func provideJobStore(cfg *config.Config, client *goredis.Client) job.Store {
	if cfg.Jobs.Store == config.JobStoreMemory {
		return jobqueue.NewMemoryStore(cfg.Jobs.ResultTTL)
	}
	return redis.NewJobStore(client, cfg.Jobs.ResultTTL)
}

func provideMaintenanceRunner(
	cfg *config.Config,
	bookRepo book.Repository,
	lookup book.MetadataLookup,
	txManager *mysql.TxManager,
	log logrus.FieldLogger,
) *maintenance.Runner {
	return maintenance.NewRunner(bookRepo, lookup, txManager, maintenance.Options{
		SeedFile:        cfg.Jobs.SeedFile,
		RemoteBatchSize: cfg.Jobs.RemoteBatchSize,
	}, log)
}

func provideJobRunner(store job.Store, executor *maintenance.Runner, log logrus.FieldLogger) *jobqueue.Runner {
	return jobqueue.NewRunner(store, executor, log)
}

// provideJobQueue 按jobs.backend创建任务队列
//
//	local    进程内worker池，API进程自己执行任务
//	rabbitmq 只发布消息，由cmd/worker消费执行
func provideJobQueue(cfg *config.Config, store job.Store, runner *jobqueue.Runner, log logrus.FieldLogger) (job.Queue, func(), error) {
	if cfg.Jobs.Backend == config.JobBackendRabbitMQ {
		publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, "topic", log)
		if err != nil {
			return nil, nil, err
		}
		return jobqueue.NewRabbitQueue(store, publisher, log), func() { _ = publisher.Close() }, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	queue := jobqueue.NewLocalQueue(store, runner, cfg.Jobs.Workers, cfg.Jobs.QueueSize, log)
	queue.Start(ctx)

	cleanup := func() {
		// 等待已入队任务执行完，超时后取消正在执行的任务
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := queue.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("等待后台任务结束超时")
		}
		cancel()
	}
	return queue, cleanup, nil
}

// provideScheduler 周期任务，jobs.scheduler.enabled=false时不调度
func provideScheduler(cfg *config.Config, queue job.Queue, log logrus.FieldLogger) *jobqueue.Scheduler {
	if !cfg.Jobs.Scheduler.Enabled {
		return jobqueue.NewScheduler(queue, nil, log)
	}
	return jobqueue.NewScheduler(queue, []jobqueue.Schedule{
		{Kind: job.KindRefreshRemote, Interval: cfg.Jobs.Scheduler.RefreshRemoteInterval},
		{Kind: job.KindComputeStatistics, Interval: cfg.Jobs.Scheduler.StatisticsInterval},
		{Kind: job.KindRefreshSeed, Interval: cfg.Jobs.Scheduler.SeedInterval},
	}, log)
}
